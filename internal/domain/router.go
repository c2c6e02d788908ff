package domain

import (
	"errors"
	"fmt"
)

// ErrUnroutableReply is returned when the router model's reply matches
// neither decision variant.
var ErrUnroutableReply = errors.New("router reply matches no known variant")

// Actions an InternalDataRequest can ask for.
const (
	ActionFetch     = "fetch"
	ActionSummarize = "summarize"
)

// InternalDataRequest asks the pipeline to consult ingested data
// before answering.
type InternalDataRequest struct {
	Filename string `json:"filename"`
	Query    string `json:"query"`
	Filetype string `json:"filetype"`
	Action   string `json:"action"`
}

// ConversationalResponse is a direct reply that needs no retrieval.
type ConversationalResponse struct {
	Response string `json:"response"`
}

// RouterDecision is the routing outcome. Exactly one field is set.
type RouterDecision struct {
	DataRequest    *InternalDataRequest
	Conversational *ConversationalResponse
}

// NeedsData reports whether the decision requires consulting
// ingested data.
func (d RouterDecision) NeedsData() bool {
	return d.DataRequest != nil
}

// Validate checks that exactly one variant is populated.
func (d RouterDecision) Validate() error {
	if (d.DataRequest == nil) == (d.Conversational == nil) {
		return ErrUnroutableReply
	}
	return nil
}

// TransformationKind names a query rewriting strategy. The set is
// closed: Apply dispatches on the value, never on a free-form name.
type TransformationKind string

const (
	TransformDecomposition TransformationKind = "decomposition"
	TransformMultiQuery    TransformationKind = "multi_query"
	TransformStepBack      TransformationKind = "step_back"
	TransformCoreMeaning   TransformationKind = "core_meaning"
	TransformNone          TransformationKind = "none"
)

// TransformationKinds lists every selectable strategy.
func TransformationKinds() []TransformationKind {
	return []TransformationKind{
		TransformDecomposition,
		TransformMultiQuery,
		TransformStepBack,
		TransformCoreMeaning,
		TransformNone,
	}
}

// ParseTransformationKind maps a model-emitted label onto the closed
// enum, rejecting anything outside it.
func ParseTransformationKind(s string) (TransformationKind, error) {
	for _, k := range TransformationKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown transformation kind %q", s)
}
