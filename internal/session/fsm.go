package session

// State is a session lifecycle state.
type State string

// State constants define the lifecycle of a scanning session.
const (
	StateIdle          State = "idle"
	StateLoadingModels State = "loading_models"
	StateModelsReady   State = "models_ready"
	StateCameraOff     State = "camera_off"
	StateCameraOn      State = "camera_on"
	StateScanning      State = "scanning"
	StateError         State = "error"
)

// Event drives a state transition.
type Event string

// Event constants are the inputs of the transition function.
const (
	EventStart         Event = "start"
	EventModelsLoaded  Event = "models_loaded"
	EventModelsFailed  Event = "models_failed"
	EventRosterReady   Event = "roster_ready"
	EventRosterFailed  Event = "roster_failed"
	EventCameraStarted Event = "camera_started"
	EventCameraFailed  Event = "camera_failed"
	EventScanStarted   Event = "scan_started"
	EventScanFinished  Event = "scan_finished"
	EventStop          Event = "stop"
)

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]State{
	{StateIdle, EventStart}:                 StateLoadingModels,
	{StateLoadingModels, EventModelsLoaded}: StateModelsReady,
	{StateLoadingModels, EventModelsFailed}: StateError,
	{StateModelsReady, EventRosterReady}:    StateCameraOff,
	{StateModelsReady, EventRosterFailed}:   StateError,
	{StateCameraOff, EventCameraStarted}:    StateCameraOn,
	{StateCameraOff, EventCameraFailed}:     StateError,
	{StateError, EventCameraStarted}:        StateCameraOn,
	{StateError, EventCameraFailed}:         StateError,
	{StateCameraOn, EventScanStarted}:       StateScanning,
	{StateScanning, EventScanFinished}:      StateCameraOn,
}

// next returns the state reached from s on e. Stop is accepted from every state.
func next(s State, e Event) (State, bool) {
	if e == EventStop {
		return StateIdle, true
	}
	to, ok := transitions[transitionKey{s, e}]
	return to, ok
}
