package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/printer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptHeader is the shop identity printed on top of every receipt
type ReceiptHeader struct {
	StoreName string
	Address   string
	Phone     string
}

// PrinterService formats receipts as ESC/POS and sends them to the
// configured receipt printer.
type PrinterService struct {
	printer     printer.Printer
	receipts    *ReceiptService
	header      ReceiptHeader
	printerType string
	logger      *zap.Logger
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, receipts *ReceiptService, header ReceiptHeader, printerType string, logger *zap.Logger) *PrinterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrinterService{
		printer:     p,
		receipts:    receipts,
		header:      header,
		printerType: printerType,
		logger:      logger,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != printer.TypeNone && s.printerType != "",
		Connected:  s.printer.IsConnected(ctx),
		Type:       s.printerType,
	}
}

// PrintReceipt prints a committed receipt. Reprints never open the drawer.
func (s *PrinterService) PrintReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receipts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.printer.Print(ctx, FormatReceipt(s.header, receipt, false)); err != nil {
		s.logger.Error("printer error", zap.String("receipt_id", id.String()), zap.Error(err))
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

// PrintSale prints the receipt of a sale that was just committed, opening the
// cash drawer when the tender needs it. Failures are logged only.
func (s *PrinterService) PrintSale(ctx context.Context, receipt *entity.Receipt) {
	data := FormatReceipt(s.header, receipt, receipt.PaymentMethod.Info().OpensDrawer)
	if err := s.printer.Print(ctx, data); err != nil {
		s.logger.Warn("failed to print sale receipt", zap.String("receipt_number", receipt.ReceiptNumber), zap.Error(err))
	}
}

// TestPrint sends a sample receipt to the printer.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	price := decimal.NewFromInt(10)
	receipt := &entity.Receipt{
		ReceiptNumber: "TEST-00001",
		Lines: []entity.ReceiptLine{
			{ItemName: "Test Item 1", Quantity: 1, UnitPrice: price, LineTotal: price},
			{ItemName: "Test Item 2", Quantity: 2, UnitPrice: price.Div(decimal.NewFromInt(2)), LineTotal: price},
		},
		Subtotal:       decimal.NewFromInt(20),
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		Total:          decimal.NewFromInt(20),
		PaymentMethod:  enum.PaymentMethodCash,
		CreatedAt:      time.Now(),
	}

	if err := s.printer.Print(ctx, FormatReceipt(s.header, receipt, false)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatReceipt converts a receipt into ESC/POS bytes for 58mm paper.
func FormatReceipt(h ReceiptHeader, r *entity.Receipt, openDrawer bool) []byte {
	doc := printer.NewDocument(printer.Width58mm)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(h.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)
	if h.Address != "" {
		doc.Text(h.Address)
	}
	if h.Phone != "" {
		doc.Text(h.Phone)
	}
	if r.Simulated {
		doc.SetBold(true).Text("*** NOT A VALID RECEIPT ***").Text("local simulation").SetBold(false)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		Columns("Receipt:", r.ReceiptNumber).
		Columns("Date:", r.CreatedAt.Format("2006-01-02 15:04"))
	if r.PaymentMethod != enum.PaymentMethodNone {
		doc.Columns("Payment:", r.PaymentMethod.Info().Label)
	}
	if r.CustomerID == nil {
		doc.Columns("Customer:", "Walk-in")
	}
	doc.Separator('-')

	for _, l := range r.Lines {
		doc.ItemLine(l.Quantity, l.ItemName, money(l.LineTotal))
		if l.Quantity > 1 {
			doc.TextF("  @ %s each", money(l.UnitPrice))
		}
	}

	doc.Separator('-').
		Columns("Subtotal:", money(r.Subtotal))
	if r.DiscountAmount.IsPositive() {
		doc.Columns("Discount:", "-"+money(r.DiscountAmount))
	}
	if r.TaxAmount.IsPositive() {
		doc.Columns(fmt.Sprintf("Tax (%s%%):", r.TaxRatePercent.String()), money(r.TaxAmount))
	}
	doc.SetBold(true).
		Columns("TOTAL:", money(r.Total)).
		SetBold(false)

	if r.Notes != "" {
		doc.Separator('-').Text(r.Notes)
	}

	doc.Separator('-').
		SetAlign(printer.AlignCenter).
		FeedLines(1).
		Text("Thank you for your business!").
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	if openDrawer {
		doc.OpenDrawer()
	}
	return doc.Bytes()
}
