package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// answerPayload flattens the answer fields next to the question id:
// {"questionId":"q1","optionId":2}.
type answerPayload struct {
	QuestionID string `json:"questionId"`
	domain.Answer
}

type questionPayload struct {
	QuestionID string `json:"questionId"`
}

type flagResult struct {
	QuestionID string `json:"questionId"`
	Flagged    bool   `json:"flagged"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// errClientGone ends the connection's goroutine group when the reader stops.
var errClientGone = errors.New("client disconnected")

// ServeWS upgrades HTTP requests to websockets, starts an attempt and
// relays its events until the client goes away. Disconnecting abandons
// an unfinished attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	started, err := h.service.Start(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: h.errorPayload(err)})
		return
	}
	attemptID := started.AttemptID
	defer h.service.Abandon(context.Background(), attemptID)

	events, cancel, err := h.service.Subscribe(r.Context(), attemptID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: h.errorPayload(err)})
		return
	}
	defer cancel()

	// The first subscription event repeats the start snapshot.
	<-events

	g, ctx := errgroup.WithContext(r.Context())
	send := make(chan outboundMessage, 16)
	push := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	}

	// Only the writer touches the connection for writes.
	g.Go(func() error {
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					return err
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				push(outboundMessage{Type: string(ev.Type), Payload: ev.Payload})
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		// Unblocks the reader when another goroutine failed first.
		return conn.Close()
	})

	g.Go(func() error {
		push(outboundMessage{Type: "started", Payload: started})
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug("ws read", zap.String("attempt_id", attemptID), zap.Error(err))
				}
				return errClientGone
			}
			if reply, ok := h.handle(ctx, attemptID, inbound); ok {
				push(reply)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errClientGone) {
		h.logger.Warn("ws connection closed", zap.String("attempt_id", attemptID), zap.Error(err))
	}
}

// handle applies one inbound command. State changes reach the client as
// subscription events; the returned message is a direct reply, if any.
func (h *WSHandler) handle(ctx context.Context, attemptID string, msg inboundMessage) (outboundMessage, bool) {
	var err error
	switch msg.Type {
	case "answer":
		var payload answerPayload
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil {
			return errorMessage("invalid answer payload"), true
		}
		var feedback *engine.Feedback
		feedback, err = h.service.SelectAnswer(ctx, attemptID, payload.QuestionID, payload.Answer)
		if err == nil && feedback == nil {
			// Deferred feedback: acknowledge with the updated state.
			return h.stateMessage(ctx, attemptID)
		}
	case "flag":
		var payload questionPayload
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil {
			return errorMessage("invalid flag payload"), true
		}
		var flagged bool
		flagged, err = h.service.ToggleFlag(ctx, attemptID, payload.QuestionID)
		if err == nil {
			return outboundMessage{Type: "flagged", Payload: flagResult{QuestionID: payload.QuestionID, Flagged: flagged}}, true
		}
	case "jump":
		var payload questionPayload
		if jsonErr := json.Unmarshal(msg.Payload, &payload); jsonErr != nil {
			return errorMessage("invalid jump payload"), true
		}
		_, err = h.service.Jump(ctx, attemptID, payload.QuestionID)
	case "next":
		_, _, err = h.service.Next(ctx, attemptID)
	case "previous":
		_, err = h.service.Previous(ctx, attemptID)
	case "review":
		_, err = h.service.StartFlaggedReview(ctx, attemptID)
	case "submit":
		_, err = h.service.SubmitWithoutReview(ctx, attemptID)
	case "state":
		return h.stateMessage(ctx, attemptID)
	default:
		return errorMessage("unsupported message type"), true
	}
	if err != nil {
		return outboundMessage{Type: "error", Payload: h.errorPayload(err)}, true
	}
	return outboundMessage{}, false
}

func (h *WSHandler) stateMessage(ctx context.Context, attemptID string) (outboundMessage, bool) {
	snap, err := h.service.Snapshot(ctx, attemptID)
	if err != nil {
		return outboundMessage{Type: "error", Payload: h.errorPayload(err)}, true
	}
	return outboundMessage{Type: "state", Payload: snap}, true
}

func (h *WSHandler) errorPayload(err error) errorPayload {
	if app.IsClientError(err) {
		return errorPayload{Message: err.Error()}
	}
	h.logger.Error("ws request failed", zap.Error(err))
	return errorPayload{Message: "internal error"}
}

func errorMessage(message string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: message}}
}
