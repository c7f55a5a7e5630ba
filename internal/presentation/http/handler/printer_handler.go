package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
)

// PrinterHandler exposes the till's receipt printer
type PrinterHandler struct {
	printerService *service.PrinterService
}

func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// printResult reports a print job. A receipt that exists but did not reach
// the printer is still a 200; the till shows Warning and offers a reprint.
type printResult struct {
	Receipt *entity.Receipt `json:"receipt"`
	Printed bool            `json:"printed"`
	Warning string          `json:"warning,omitempty"`
}

func newPrintResult(receipt *entity.Receipt, err error) printResult {
	res := printResult{Receipt: receipt, Printed: err == nil}
	if err != nil {
		res.Warning = err.Error()
	}
	return res
}

func (h *PrinterHandler) GetStatus(c *gin.Context) {
	response.OK(c, "Printer status retrieved", h.printerService.GetStatus(c.Request.Context()))
}

// TestPrint prints a sample receipt without touching the drawer
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	receipt, err := h.printerService.TestPrint(c.Request.Context())
	res := newPrintResult(receipt, err)
	if !res.Printed {
		response.OK(c, "Test print not delivered", res)
		return
	}
	response.OK(c, "Test page sent to printer", res)
}

// PrintReceipt reprints a committed receipt. The cash drawer stays closed.
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.printerService.PrintReceipt(c.Request.Context(), id)
	if receipt == nil {
		response.Error(c, err)
		return
	}
	res := newPrintResult(receipt, err)
	if !res.Printed {
		response.OK(c, "Receipt found but printing failed", res)
		return
	}
	response.OK(c, "Receipt printed successfully", res)
}
