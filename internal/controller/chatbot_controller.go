package controller

import (
	"context"

	"legal-rag-be/internal/dto"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/pkg/serverutils"
	"legal-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	GetSessionSummary(ctx *fiber.Ctx) error
	ExportSession(ctx *fiber.Ctx) error
	ExportQAPairs(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	logger  logger.ILogger
}

func NewChatbotController(service service.IChatbotService, log logger.ILogger) IChatbotController {
	return &chatbotController{service: service, logger: log}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbot/v1")
	h.Post("/ask", c.Ask)
	h.Get("/ws", c.AskStream)

	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions", c.ListSessions)
	h.Get("/sessions/:id", c.GetSession)
	h.Get("/sessions/:id/summary", c.GetSessionSummary)
	h.Get("/sessions/:id/export", c.ExportSession)
	h.Get("/sessions/:id/qa", c.ExportQAPairs)
	h.Delete("/sessions/:id", c.DeleteSession)
}

func (c *chatbotController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatbotController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.service.ListSessions(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *chatbotController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *chatbotController) GetSessionSummary(ctx *fiber.Ctx) error {
	res, err := c.service.GetSessionSummary(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session summary", res))
}

// ExportSession serves the session as a downloadable JSON document rather
// than inside the response envelope.
func (c *chatbotController) ExportSession(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	data, err := c.service.ExportSession(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	ctx.Attachment("session_" + id + ".json")
	return ctx.Send(data)
}

func (c *chatbotController) ExportQAPairs(ctx *fiber.Ctx) error {
	res, err := c.service.ExportQAPairs(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success export question answer pairs", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

// AskStream answers one question per inbound JSON frame. Errors are sent back
// as error envelopes and keep the connection open.
func (c *chatbotController) AskStream(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		connCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		remote := conn.RemoteAddr().String()
		c.logger.Info("HTTP", "Chat stream opened", map[string]interface{}{"remote": remote})

		for {
			var req dto.AskRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Warn("HTTP", "Chat stream read failed", map[string]interface{}{
						"remote": remote,
						"error":  err.Error(),
					})
				}
				break
			}

			if err := conn.WriteJSON(c.answerFrame(connCtx, &req)); err != nil {
				break
			}
		}

		c.logger.Info("HTTP", "Chat stream closed", map[string]interface{}{"remote": remote})
	})(ctx)
}

func (c *chatbotController) answerFrame(ctx context.Context, req *dto.AskRequest) any {
	if err := serverutils.ValidateRequest(*req); err != nil {
		return serverutils.ErrorResponseFor(err)
	}

	res, err := c.service.Ask(ctx, req)
	if err != nil {
		return serverutils.ErrorResponseFor(err)
	}
	return serverutils.SuccessResponse("Success answer question", res)
}
