package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/sangkips/investify-pos/pkg/printer"
)

var drawerKick = []byte{0x1b, 'p', 0x00, 0x19, 0xfa}

func TestPrintSaleOpensDrawerForCash(t *testing.T) {
	env := newTestEnv(t)
	buf := printer.NewBufferPrinter()
	svc := NewPrinterService(buf, env.receipts, ReceiptHeader{StoreName: "Duka"}, printer.TypeNone, nil)

	outcome, err := env.checkout.Commit(env.ctx, env.request(t, map[string]int{"KTL-001": 2}, nil))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	svc.PrintSale(context.Background(), outcome.Receipt)

	jobs := buf.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected one print job, got %d", len(jobs))
	}
	out := jobs[0]
	for _, want := range []string{"Duka", outcome.Receipt.ReceiptNumber, "1000.00", "@ 500.00 each", "Walk-in", "Cash"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("expected receipt to contain %q", want)
		}
	}
	if !bytes.Contains(out, drawerKick) {
		t.Error("expected cash sale to kick the drawer")
	}
	if !bytes.Contains(out, []byte("NOT A VALID RECEIPT")) {
		t.Error("expected simulated receipt banner")
	}
}

func TestReprintNeverOpensDrawer(t *testing.T) {
	env := newTestEnv(t)
	buf := printer.NewBufferPrinter()
	svc := NewPrinterService(buf, env.receipts, ReceiptHeader{StoreName: "Duka"}, printer.TypeNone, nil)

	outcome, err := env.checkout.Commit(env.ctx, env.request(t, map[string]int{"BLN-001": 1}, nil))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := svc.PrintReceipt(env.ctx, outcome.Receipt.ID); err != nil {
		t.Fatalf("reprint: %v", err)
	}
	if bytes.Contains(buf.Jobs()[0], drawerKick) {
		t.Error("reprints must not open the drawer")
	}
}

func TestFormatReceiptCardSale(t *testing.T) {
	env := newTestEnv(t)
	req := env.request(t, map[string]int{"BLN-001": 1}, nil)
	outcome, err := env.checkout.Commit(env.ctx, req)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	r := outcome.Receipt
	r.PaymentMethod = enum.PaymentMethodCard
	r.Simulated = false

	out := FormatReceipt(ReceiptHeader{StoreName: "Duka"}, r, r.PaymentMethod.Info().OpensDrawer)
	if bytes.Contains(out, drawerKick) {
		t.Error("card sales must not open the drawer")
	}
	if bytes.Contains(out, []byte("NOT A VALID RECEIPT")) {
		t.Error("durable receipts must not carry the simulation banner")
	}
}

func TestPrinterStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPrinterService(printer.NewBufferPrinter(), env.receipts, ReceiptHeader{}, printer.TypeNone, nil)

	status := svc.GetStatus(context.Background())
	if status.Configured || status.Connected {
		t.Errorf("expected unconfigured printer, got %+v", status)
	}
}
