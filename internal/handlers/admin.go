package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/jobs"
	"github.com/brookstone/whatsapp-bot/internal/models"
	"github.com/brookstone/whatsapp-bot/internal/services"
	"github.com/brookstone/whatsapp-bot/internal/storage"
)

const defaultLeadLimit = 50

// SessionLister exposes in-memory conversations for inspection.
type SessionLister interface {
	GetActiveSessions() []models.Session
	GetSession(phone string) (models.Session, error)
	ExpireSession(phone string) error
}

// ConfirmationRunner runs one booking-confirmation pass.
type ConfirmationRunner interface {
	RunOnce(ctx context.Context) (jobs.Summary, error)
}

// AdminHandler handles admin operations
type AdminHandler struct {
	sessions SessionLister
	leads    storage.Store
	poller   ConfirmationRunner
	logger   *zap.Logger
}

// NewAdminHandler creates a new admin handler. poller may be nil when the
// site-visit ledger is not configured.
func NewAdminHandler(sessions SessionLister, leads storage.Store, poller ConfirmationRunner, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		leads:    leads,
		poller:   poller,
		logger:   logger,
	}
}

// ListSessions returns active conversations, most recent first.
func (h *AdminHandler) ListSessions(c *fiber.Ctx) error {
	sessions := h.sessions.GetActiveSessions()
	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one conversation.
func (h *AdminHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.sessions.GetSession(c.Params("phone"))
	if errors.Is(err, services.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "session": session})
}

// ExpireSession drops a conversation so the next message starts fresh.
func (h *AdminHandler) ExpireSession(c *fiber.Ctx) error {
	phone := c.Params("phone")
	if err := h.sessions.ExpireSession(phone); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		return err
	}
	h.logger.Info("session expired by admin", zap.String("phone", phone))
	return c.JSON(fiber.Map{"success": true})
}

// ListLeads returns recorded leads, newest first.
func (h *AdminHandler) ListLeads(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLeadLimit)

	leads, err := h.leads.ListLeads(c.UserContext(), limit)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch leads",
		})
	}
	total, err := h.leads.CountLeads(c.UserContext())
	if err != nil {
		h.logger.Error("failed to count leads", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch leads",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"leads":   leads,
		"count":   len(leads),
		"total":   total,
	})
}

// CheckBookings runs the booking-confirmation pass immediately.
func (h *AdminHandler) CheckBookings(c *fiber.Ctx) error {
	if h.poller == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Site-visit ledger not configured",
		})
	}

	summary, err := h.poller.RunOnce(c.UserContext())
	if err != nil {
		h.logger.Error("booking confirmation pass failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to check new bookings",
		})
	}
	return c.JSON(fiber.Map{"success": true, "summary": summary})
}
