package types

// QAPair is one conversational turn: the user's question and the answer
// accumulated while the graph processes it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AgentState is the mutable record threaded through every graph node for one
// request. It is owned by a single run and never shared across requests; its
// fields are projected into the individual memory kinds at persistence time.
type AgentState struct {
	Question       string
	UserID         string
	SessionID      string
	FileName       string
	StorageURI     string
	DatasetSummary string

	RequestType   Label
	Subtasks      []string
	ExecutionPlan string

	Code     string
	CodeMode Label
	// CodeError holds the captured failure text of the last execution,
	// empty when the last execution succeeded.
	CodeError        string
	DebugAttempts    int
	MaxDebugAttempts int

	Conversation        []QAPair
	ConversationSummary string
	CodeSummary         string
	Variables           map[string]any

	Suggestion string
	Image      string

	emit func(StreamEvent)
}

// OnEvent registers the stream callback for this run. Not persisted.
func (s *AgentState) OnEvent(f func(StreamEvent)) {
	s.emit = f
}

func (s *AgentState) Emit(e StreamEvent) {
	if s.emit != nil {
		s.emit(e)
	}
}

func (s *AgentState) EmitText(text string) {
	if text != "" {
		s.Emit(TextEvent(text))
	}
}

func (s *AgentState) EmitImage(data string) {
	if data != "" {
		s.Emit(ImageEvent(data))
	}
}

// BeginTurn opens the in-progress conversation turn for this run's question.
func (s *AgentState) BeginTurn() {
	s.Conversation = append(s.Conversation, QAPair{Question: s.Question})
}

// AppendAnswer extends the in-progress turn's answer.
func (s *AgentState) AppendAnswer(text string) {
	if len(s.Conversation) == 0 {
		s.BeginTurn()
	}
	turn := &s.Conversation[len(s.Conversation)-1]
	if turn.Answer != "" {
		turn.Answer += "\n"
	}
	turn.Answer += text
}

// CurrentAnswer returns the answer built so far for the in-progress turn.
func (s *AgentState) CurrentAnswer() string {
	if len(s.Conversation) == 0 {
		return ""
	}
	return s.Conversation[len(s.Conversation)-1].Answer
}

// PopSubtask consumes the head of the pending subtask queue.
func (s *AgentState) PopSubtask() (string, bool) {
	if len(s.Subtasks) == 0 {
		return "", false
	}
	head := s.Subtasks[0]
	s.Subtasks = s.Subtasks[1:]
	return head, true
}

// VariableNames lists the runtime bindings available to generated code.
func (s *AgentState) VariableNames() []string {
	names := make([]string, 0, len(s.Variables))
	for name := range s.Variables {
		names = append(names, name)
	}
	return names
}
