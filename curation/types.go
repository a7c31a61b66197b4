package curation

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sgt-cod/youtube-automation-news/media"
)

// Status of one review cycle. The values are part of the on-disk record
// format and are kept verbatim from the reviewer-facing vocabulary.
type Status string

const (
	StatusPending   Status = "aguardando"
	StatusApproved  Status = "aprovado"
	StatusCancelled Status = "cancelado"
	StatusTimedOut  Status = "timeout"
	StatusSkipped   Status = "pulada"
	StatusReceived  Status = "recebida"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool { return s != StatusPending }

// Decision is the reviewer's verdict on a single candidate.
type Decision string

const (
	DecisionApproved Decision = "aprovado"
	DecisionReplaced Decision = "substituido"
	DecisionRejected Decision = "rejeitado"
)

// Candidate kinds: a media item bound to a narration segment, or a news
// topic awaiting selection.
const (
	KindMedia = "midia"
	KindTopic = "noticia"
)

// Candidate is one reviewable unit. Once a decision is recorded for its
// index the candidate itself is immutable; a replacement payload lives
// in Request.Substitutions, never by overwriting the original.
type Candidate struct {
	Kind     string    `json:"kind"`
	Media    media.Ref `json:"midia,omitempty"`
	Title    string    `json:"titulo,omitempty"`
	Summary  string    `json:"resumo,omitempty"`
	Text     string    `json:"texto,omitempty"`
	Keywords []string  `json:"keywords,omitempty"`
	Custom   bool      `json:"customizado,omitempty"`
}

// Replacement is the substitute payload attached to a "substituido"
// decision: a media ref for media candidates, free text for topics.
type Replacement struct {
	Media media.Ref `json:"midia,omitempty"`
	Text  string    `json:"texto,omitempty"`
}

// Request is the durable record of one review cycle, shared between the
// polling loop and anything inspecting it out-of-band. Field names match
// the historical JSON file format.
type Request struct {
	ID            string              `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	Kind          string              `json:"tipo"`
	Items         []Candidate         `json:"segmentos"`
	Status        Status              `json:"status"`
	Cursor        int                 `json:"segmento_atual"`
	Decisions     map[int]Decision    `json:"aprovacoes"`
	Substitutions map[int]Replacement `json:"substituicoes,omitempty"`

	AwaitingUpload bool `json:"aguardando_foto"`
	UploadIndex    int  `json:"foto_segmento"`

	LastPromptAt *time.Time `json:"ultimo_envio"`
}

func NewRequest(kind string, items []Candidate) Request {
	return Request{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      kind,
		Items:     items,
		Status:    StatusPending,
		Decisions: make(map[int]Decision),
	}
}

// NextUndecided returns the lowest item index without a decision.
func (r *Request) NextUndecided() (int, bool) {
	for i := range r.Items {
		if _, ok := r.Decisions[i]; !ok {
			return i, true
		}
	}
	return len(r.Items), false
}

// Decide records a verdict, last write wins. Duplicate deliveries of
// the same button press simply overwrite the same map entry.
func (r *Request) Decide(index int, d Decision) {
	if index < 0 || index >= len(r.Items) {
		return
	}
	if r.Decisions == nil {
		r.Decisions = make(map[int]Decision)
	}
	r.Decisions[index] = d
	if next, ok := r.NextUndecided(); ok {
		r.Cursor = next
	} else {
		r.Cursor = len(r.Items)
	}
}

// Replace records a replaced decision together with its substitute.
func (r *Request) Replace(index int, rep Replacement) {
	if index < 0 || index >= len(r.Items) {
		return
	}
	if r.Substitutions == nil {
		r.Substitutions = make(map[int]Replacement)
	}
	r.Substitutions[index] = rep
	r.Decide(index, DecisionReplaced)
}

// ApproveRemaining fills every undecided index with an approval. Called
// by the bulk shortcut; leaves the request fully decided.
func (r *Request) ApproveRemaining() {
	if r.Decisions == nil {
		r.Decisions = make(map[int]Decision)
	}
	for i := range r.Items {
		if _, ok := r.Decisions[i]; !ok {
			r.Decisions[i] = DecisionApproved
		}
	}
	r.Cursor = len(r.Items)
}

// AllDecided reports whether every candidate index carries a decision.
func (r *Request) AllDecided() bool {
	_, undecided := r.NextUndecided()
	return !undecided
}

// Resolved returns the items in their original order with replacement
// payloads applied. Context fields (text, keywords, title of media
// candidates) are never touched by a replacement.
func (r *Request) Resolved() []Candidate {
	out := make([]Candidate, len(r.Items))
	copy(out, r.Items)
	for i, rep := range r.Substitutions {
		if i < 0 || i >= len(out) {
			continue
		}
		if !rep.Media.IsZero() {
			out[i].Media = rep.Media
			out[i].Custom = true
			continue
		}
		if rep.Text != "" {
			if out[i].Kind == KindTopic {
				out[i].Title = rep.Text
			} else {
				out[i].Media = media.Ref{Source: rep.Text, Kind: media.KindLocalPhoto}
			}
			out[i].Custom = true
		}
	}
	return out
}

// Accepted returns the resolved candidates whose decision is not a
// rejection, in original order. Undecided indexes pass through, which
// lets a timed-out review proceed with whatever was presented.
func (r *Request) Accepted() []Candidate {
	resolved := r.Resolved()
	out := make([]Candidate, 0, len(resolved))
	for i, c := range resolved {
		if r.Decisions[i] == DecisionRejected {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ThumbnailRecord is the control file of the custom-thumbnail sub-flow.
type ThumbnailRecord struct {
	Title         string    `json:"titulo"`
	Status        Status    `json:"status"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
