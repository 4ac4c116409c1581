package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/service"
	"github.com/noah-isme/notebook-grading-api/internal/utils"
)

const feedFilterLocal = "feed_filter"

// SubmissionFeedHandler serves live submission changes over SSE and websocket.
type SubmissionFeedHandler struct {
	feed      service.SubmissionFeed
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewSubmissionFeedHandler constructs a feed handler.
func NewSubmissionFeedHandler(feed service.SubmissionFeed, logger zerolog.Logger, keepAlive time.Duration) *SubmissionFeedHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &SubmissionFeedHandler{
		feed:      feed,
		logger:    logger.With().Str("component", "submission_feed_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the stream routes. It must run before routes with a /:id parameter.
func (h *SubmissionFeedHandler) Register(router fiber.Router) {
	router.Get("/stream", h.stream)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		filter, ok := h.filterFor(c)
		if !ok {
			return utils.SendError(c, fiber.StatusForbidden, "select a role before subscribing")
		}
		c.Locals(feedFilterLocal, filter)
		c.Locals("request_ctx", requestContext(c))
		return c.Next()
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

// filterFor applies the list visibility rules: students only see their own submissions.
func (h *SubmissionFeedHandler) filterFor(c *fiber.Ctx) (service.FeedFilter, bool) {
	actor := actorFromContext(c)
	// The filter outlives the handler on both the SSE writer and the websocket connection.
	filter := service.FeedFilter{Status: strings.TrimSpace(fiberutils.CopyString(c.Query("status")))}

	switch {
	case actor.IsGrader():
		filter.StudentID = strings.TrimSpace(fiberutils.CopyString(c.Query("student_id")))
	case actor.IsStudent():
		filter.StudentID = actor.ID
	default:
		return service.FeedFilter{}, false
	}
	return filter, actor.ID != ""
}

func (h *SubmissionFeedHandler) stream(c *fiber.Ctx) error {
	if userIDFromContext(c) == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	filter, ok := h.filterFor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusForbidden, "select a role before subscribing")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	events, unsubscribe := h.feed.Subscribe(filter)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			unsubscribe()
			cancel()
		}()

		if err := writeKeepAlive(w); err != nil {
			return
		}

		ticker := time.NewTicker(h.keepAlive / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeSubmissionEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write submission event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write submission keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func (h *SubmissionFeedHandler) handleConnection(conn *websocket.Conn) {
	filter, _ := conn.Locals(feedFilterLocal).(service.FeedFilter)
	userID, _ := conn.Locals("user_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	events, unsubscribe := h.feed.Subscribe(filter)
	defer unsubscribe()

	// The reader only exists to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Str("user_id", userID).Msg("submission websocket connected")
	defer h.logger.Info().Str("user_id", userID).Msg("submission websocket disconnected")

	ticker := time.NewTicker(h.keepAlive / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("failed to write submission event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeSubmissionEvent(w *bufio.Writer, event dto.SubmissionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
