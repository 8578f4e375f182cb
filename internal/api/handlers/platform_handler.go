package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/maheshrc27/postqueue/internal/transfer"
)

type PlatformHandler struct {
	ps  service.PlatformService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		cfg: cfg,
	}
}

// AddSocialAccount redirects to LinkedIn. The optional tz query parameter is
// the IANA zone the account's calendar will be read in.
func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	authURL, err := h.ps.GetAuthURL(c.Context(), GetUserID(c), c.Query("tz", "UTC"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(authURL)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	if _, err := h.ps.Callback(c.Context(), c.Query("code"), c.Query("state")); err != nil {
		return respondError(c, err)
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accountList, err := h.ps.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) UpdateTimezone(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req transfer.TimezoneUpdate
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.ps.UpdateTimezone(c.Context(), GetUserID(c), accountID, req.Timezone); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.ps.Delete(c.Context(), GetUserID(c), accountID); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
