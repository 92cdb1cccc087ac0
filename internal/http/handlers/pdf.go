package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"pdf-service/internal/domain"
	"pdf-service/internal/infra/logging"
)

// PDFRenderer is the rendering capability the handlers need.
type PDFRenderer interface {
	RenderToBytes(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error)
	RenderToBase64(ctx context.Context, html string, opts domain.RenderOptions) (string, error)
}

// PDFHandler serves the render routes.
type PDFHandler struct {
	renderer PDFRenderer
}

// NewPDFHandler creates a PDFHandler backed by r.
func NewPDFHandler(r PDFRenderer) *PDFHandler {
	return &PDFHandler{renderer: r}
}

type generateResponse struct {
	Success bool   `json:"success"`
	PDF     string `json:"pdf"`
	Message string `json:"message"`
}

// HandleLegacy renders with default options and answers with the bare Base64
// text. Existing consumers cannot parse a JSON envelope on this route.
func (h *PDFHandler) HandleLegacy(c *fiber.Ctx) error {
	req, err := parseRenderRequest(c, false)
	if err != nil {
		return err
	}

	b64, err := h.renderer.RenderToBase64(c.UserContext(), req.HTMLTemplate, domain.DefaultRenderOptions())
	if err != nil {
		return failed(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b64)
}

// HandleGenerate renders with the requested options and wraps the Base64 PDF
// in a JSON envelope.
func (h *PDFHandler) HandleGenerate(c *fiber.Ctx) error {
	req, err := parseRenderRequest(c, true)
	if err != nil {
		return err
	}
	opts, err := req.options()
	if err != nil {
		return invalidInput(err.Error())
	}

	b64, err := h.renderer.RenderToBase64(c.UserContext(), req.HTMLTemplate, opts)
	if err != nil {
		return failed(c, err)
	}

	return c.JSON(generateResponse{
		Success: true,
		PDF:     b64,
		Message: "PDF generated successfully",
	})
}

// HandleDownload renders with the requested options and returns the PDF as
// an attachment.
func (h *PDFHandler) HandleDownload(c *fiber.Ctx) error {
	req, err := parseRenderRequest(c, true)
	if err != nil {
		return err
	}
	opts, err := req.options()
	if err != nil {
		return invalidInput(err.Error())
	}

	pdf, err := h.renderer.RenderToBytes(c.UserContext(), req.HTMLTemplate, opts)
	if err != nil {
		return failed(c, err)
	}

	filename := domain.SanitizeFileName(req.FileName)
	logging.Info("PDF generated", "filename", filename, "bytes", len(pdf), "request_id", requestID(c))

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// failed logs a render-path error and converts it to a client error.
func failed(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return invalidInput(err.Error())
	}
	logging.Error("PDF generation failed", "path", c.Path(), "request_id", requestID(c), "error", err)
	return renderFailure(err)
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
