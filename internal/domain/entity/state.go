package entity

import "time"

// DetectionPhase — фаза попытки распознавания.
type DetectionPhase string

const (
	PhaseIdle             DetectionPhase = "idle"              // ожидание команды
	PhaseCapturing        DetectionPhase = "capturing"         // захват и кодирование кадра
	PhaseAwaitingResponse DetectionPhase = "awaiting_response" // запрос отправлен
	PhaseSucceeded        DetectionPhase = "succeeded"         // получен проверенный цвет
	PhaseFailed           DetectionPhase = "failed"            // попытка завершилась ошибкой
)

// DetectionState — единственное состояние контроллера.
// Поля закрыты: состояние собирается только конструкторами ниже,
// поэтому результат и ошибка не могут оказаться заданы одновременно.
type DetectionState struct {
	phase     DetectionPhase
	attemptID string
	deadline  time.Time
	result    ColorResult
	err       *DetectionError
}

// IdleState возвращает состояние покоя.
func IdleState() DetectionState {
	return DetectionState{phase: PhaseIdle}
}

// CapturingState возвращает состояние захвата кадра.
func CapturingState(attemptID string) DetectionState {
	return DetectionState{phase: PhaseCapturing, attemptID: attemptID}
}

// AwaitingState возвращает состояние ожидания ответа до deadline.
func AwaitingState(attemptID string, deadline time.Time) DetectionState {
	return DetectionState{phase: PhaseAwaitingResponse, attemptID: attemptID, deadline: deadline}
}

// SucceededState возвращает состояние успешного распознавания.
func SucceededState(attemptID string, result ColorResult) DetectionState {
	return DetectionState{phase: PhaseSucceeded, attemptID: attemptID, result: result}
}

// FailedState возвращает состояние ошибки. Пустая ошибка считается неизвестной.
func FailedState(attemptID string, err *DetectionError) DetectionState {
	if err == nil {
		err = &DetectionError{Kind: KindUnknown}
	}
	return DetectionState{phase: PhaseFailed, attemptID: attemptID, err: err}
}

// Phase возвращает текущую фазу.
func (s DetectionState) Phase() DetectionPhase {
	if s.phase == "" {
		return PhaseIdle
	}
	return s.phase
}

// AttemptID возвращает идентификатор попытки, к которой относится состояние.
func (s DetectionState) AttemptID() string {
	return s.attemptID
}

// Busy сообщает, выполняется ли сейчас попытка.
func (s DetectionState) Busy() bool {
	return s.phase == PhaseCapturing || s.phase == PhaseAwaitingResponse
}

// Deadline возвращает срок ответа в фазе AwaitingResponse.
func (s DetectionState) Deadline() (time.Time, bool) {
	return s.deadline, s.phase == PhaseAwaitingResponse
}

// Result возвращает цвет в фазе Succeeded.
func (s DetectionState) Result() (ColorResult, bool) {
	return s.result, s.phase == PhaseSucceeded
}

// Failure возвращает ошибку в фазе Failed.
func (s DetectionState) Failure() (*DetectionError, bool) {
	return s.err, s.phase == PhaseFailed
}
