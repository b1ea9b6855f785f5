package transcribe

// Transcriber is the narrow inference capability the pipeline depends on.
// Implementations consume a complete buffer of 16kHz mono float32 samples
// and return the engine's raw segments along with the detected (or forced)
// language code.
type Transcriber interface {
	Transcribe(samples []float32) ([]RawSegment, string, error)
	Destroy() error
}

// RawToken is a single engine-emitted token. Timestamps are in the engine's
// native unit (centiseconds).
type RawToken struct {
	Text    string
	StartTS int64
	EndTS   int64
	P       float32
}

// RawSegment is a segment as emitted by the engine, before any unit
// conversion. Timestamps are in centiseconds. Tokens is populated only when
// token timestamps were requested.
type RawSegment struct {
	Text         string
	StartTS      int64
	EndTS        int64
	SpeakerTurn  bool
	NoSpeechProb float32
	Tokens       []RawToken
}

// Word is a transcribed word with timing (seconds) and emission probability.
type Word struct {
	Text        string  `json:"text"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float32 `json:"probability"`
}

// Segment is a contiguous span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	// SpeakerTurn indicates a detected speaker change right after this segment.
	SpeakerTurn         bool    `json:"speaker_turn"`
	NoSpeechProbability float32 `json:"no_speech_probability"`
	// Words is present only when word-level timestamps were requested.
	Words []Word `json:"words,omitempty"`
}

// Transcript is the complete result of a transcription run.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Model    string    `json:"model"`
	// SourceURL and SourceTitle are set only for URL-based transcriptions.
	SourceURL   string `json:"source_url,omitempty"`
	SourceTitle string `json:"source_title,omitempty"`
}
