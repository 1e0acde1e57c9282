package recognizer

// State is the progress of the latest Save or Recognize action.
type State int

const (
	Idle State = iota
	Saving
	Saved
	SaveFailed
	Preprocessing
	Inferring
	Recognized
	RecognitionFailed
)

var stateNames = map[State]string{
	Idle:              "Idle",
	Saving:            "Saving",
	Saved:             "Saved",
	SaveFailed:        "SaveFailed",
	Preprocessing:     "Preprocessing",
	Inferring:         "Inferring",
	Recognized:        "Result",
	RecognitionFailed: "RecognitionFailed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "Unknown"
}

// Terminal reports whether no further transition follows s within one action.
func (s State) Terminal() bool {
	switch s {
	case SaveFailed, Recognized, RecognitionFailed:
		return true
	}
	return false
}
