package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/assistant"
	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

// FallbackReply is shown when the assistant cannot answer.
const FallbackReply = "Sorry, the assistant is unavailable right now. Your RFQ was not changed, please try again in a moment."

// ErrRFQNotFound is returned when the chat names an RFQ the user does not own.
var ErrRFQNotFound = errors.New("rfq not found")

// Turn is one chat message from the buyer.
type Turn struct {
	RfqID   string        `json:"rfq_id"`
	History []llm.Message `json:"history"`
	Message string        `json:"message"`

	// Commit wraps the save of a merged RFQ. It calls save only while the
	// turn is still current and reports whether it did. Nil saves always.
	Commit func(save func() error) (bool, error) `json:"-"`
}

// TurnResult is the assistant's answer and the RFQ after any changes it
// proposed were merged.
type TurnResult struct {
	Reply   string   `json:"reply"`
	Rfq     *rfq.Rfq `json:"rfq,omitempty"`
	Changed bool     `json:"changed"`
	// Failed marks a fallback reply after an AI error.
	Failed bool `json:"failed,omitempty"`
}

// Chatter runs drafting chat turns against stored RFQs.
type Chatter struct {
	AI       *assistant.Gateway
	Rfqs     *rfq.Store
	Activity *activity.Store
	Logger   *slog.Logger
}

func (c *Chatter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Run answers one turn. An AI failure is not an error: it yields the
// fallback reply and leaves the RFQ untouched. Without an RfqID the turn
// starts a new draft once the assistant proposes content for it.
func (c *Chatter) Run(ctx context.Context, ownerID string, t Turn) (*TurnResult, error) {
	if strings.TrimSpace(t.Message) == "" {
		return nil, assistant.ErrEmptyInput
	}

	current := &rfq.Rfq{OwnerID: ownerID}
	if t.RfqID != "" {
		found, err := c.Rfqs.GetOwned(ctx, t.RfqID, ownerID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrRFQNotFound
		}
		current = found
	}

	if c.AI == nil {
		return &TurnResult{Reply: FallbackReply, Rfq: current, Failed: true}, nil
	}
	reply, err := c.AI.Chat(ctx, current, t.History, t.Message, nil)
	if err != nil {
		c.logger().Error("drafting chat failed", "rfq_id", t.RfqID, "error", err)
		return &TurnResult{Reply: FallbackReply, Rfq: current, Failed: true}, nil
	}

	out := &TurnResult{Reply: reply.Reply, Rfq: current}
	if reply.Parsed == nil || isEmptyFragment(reply.Parsed) {
		return out, nil
	}

	created := current.ID == ""
	rfq.MergeParsed(current, reply.Parsed)
	save := func() error { return c.Rfqs.Save(ctx, current) }
	committed := true
	if t.Commit != nil {
		committed, err = t.Commit(save)
	} else {
		err = save()
	}
	if err != nil {
		return nil, fmt.Errorf("saving rfq: %w", err)
	}
	if !committed {
		c.logger().Debug("superseded chat turn not saved", "rfq_id", t.RfqID)
		return out, nil
	}
	action := activity.ActionRFQUpdated
	if created {
		action = activity.ActionRFQCreated
	}
	c.Activity.Record(ctx, ownerID, action, current.ID,
		fmt.Sprintf("chat: %d line items", len(current.LineItems)))
	out.Changed = true
	return out, nil
}

func isEmptyFragment(r *rfq.Rfq) bool {
	return len(r.LineItems) == 0 && r.ProjectName == "" && r.ProjectDescription == "" && r.CommercialTerms.IsZero()
}
