package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"pos-backend/internal/config"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/internal/storage"
	"pos-backend/internal/timeutil"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"

	topProductsLimit = 5
	archiveWorkers   = 2
)

// ReportService builds the dashboard and the downloadable exports.
type ReportService struct {
	Reports      *repositories.ReportRepository
	LedgerRepo   *repositories.LedgerRepository
	Ledger       *LedgerService
	Customers    *repositories.CustomerRepository
	Products     *repositories.ProductRepository
	Sales        *repositories.SaleRepository
	Storage      storage.Uploader
	BusinessName string
	Logger       *logrus.Logger
}

func NewReportService(
	reports *repositories.ReportRepository,
	ledgerRepo *repositories.LedgerRepository,
	ledgerService *LedgerService,
	customers *repositories.CustomerRepository,
	products *repositories.ProductRepository,
	sales *repositories.SaleRepository,
	uploader storage.Uploader,
	businessName string,
	logger *logrus.Logger,
) *ReportService {
	return &ReportService{
		Reports:      reports,
		LedgerRepo:   ledgerRepo,
		Ledger:       ledgerService,
		Customers:    customers,
		Products:     products,
		Sales:        sales,
		Storage:      uploader,
		BusinessName: businessName,
		Logger:       logger,
	}
}

// Dashboard collects today's and this month's sales, receivables,
// payables, low stock and the best sellers of the last 30 days.
func (s *ReportService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	now := timeutil.Now()
	day := timeutil.StartOfDay(now)
	month := timeutil.StartOfMonth(now)

	today, err := s.Reports.SalesTotals(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	monthly, err := s.Reports.SalesTotals(ctx, month, month.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	rows, err := s.debtorRows(ctx)
	if err != nil {
		return nil, err
	}
	receivables := decimal.Zero
	for _, r := range rows {
		receivables = receivables.Add(r.RemainingDebt)
	}

	debts, payments, err := s.Reports.ActivePayables(ctx)
	if err != nil {
		return nil, err
	}
	payables := decimal.Zero
	for vendorID := range vendorIDs(debts) {
		payables = payables.Add(ledger.SummarizePayables(vendorID, debts, payments).RemainingDebt)
	}

	lowStock, err := s.Products.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.Reports.TopProducts(ctx, day.AddDate(0, 0, -30), topProductsLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []models.TopProduct{}
	}

	return &models.Dashboard{
		Today:            today,
		Month:            monthly,
		TotalReceivables: receivables,
		DebtorCount:      len(rows),
		TotalPayables:    payables,
		LowStockCount:    lowStock,
		TopProducts:      top,
		GeneratedAt:      now,
	}, nil
}

// debtorRows lists customers whose remaining balance is positive, largest
// first. Totals come from the shared calculator.
func (s *ReportService) debtorRows(ctx context.Context) ([]models.DebtorRow, error) {
	customers, err := s.LedgerRepo.CustomersWithActiveDebt(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.DebtorRow, 0, len(customers))
	for _, c := range customers {
		sum, err := s.Ledger.Balance(ctx, ledger.Scope{CustomerID: c.ID})
		if err != nil {
			return nil, err
		}
		if !sum.RemainingDebt.IsPositive() {
			continue
		}
		rows = append(rows, models.DebtorRow{
			CustomerID:    c.ID,
			Name:          c.Name,
			Phone:         c.Phone,
			TotalDebt:     sum.TotalDebt,
			TotalRefunded: sum.TotalRefunded,
			TotalPaid:     sum.TotalPaid,
			RemainingDebt: sum.RemainingDebt,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RemainingDebt.GreaterThan(rows[j].RemainingDebt)
	})
	return rows, nil
}

func (s *ReportService) DebtorsCSV(ctx context.Context) ([]byte, error) {
	rows, err := s.debtorRows(ctx)
	if err != nil {
		return nil, err
	}
	return buildDebtorsCSV(rows)
}

// SalesXLSX exports sales created between the optional from/to dates
// (YYYY-MM-DD, inclusive). With no dates it covers the current month.
func (s *ReportService) SalesXLSX(ctx context.Context, from, to string) ([]byte, error) {
	start, end, err := salesRange(from, to)
	if err != nil {
		return nil, err
	}
	sales, err := s.Reports.SalesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return buildSalesXLSX(sales)
}

func salesRange(from, to string) (time.Time, time.Time, error) {
	start, end, err := timeutil.DateRange(from, to)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("%v", err)
	}
	month := timeutil.StartOfMonth(timeutil.Now())
	if start == nil {
		start = &month
	}
	if end == nil {
		next := month.AddDate(0, 1, 0)
		if !start.Before(next) {
			next = start.AddDate(0, 0, 1)
		}
		end = &next
	}
	return *start, *end, nil
}

// StatementPDF renders a customer's debts, refunds and payments with a
// running balance.
func (s *ReportService) StatementPDF(ctx context.Context, customerID uuid.UUID, subCustomerID *uuid.UUID) ([]byte, error) {
	customer, err := s.Customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	scope := ledger.Scope{CustomerID: customerID, SubCustomerID: subCustomerID}
	l, err := s.Ledger.Calculator.Load(ctx, scope)
	if err != nil {
		return nil, err
	}
	return buildStatementPDF(s.BusinessName, customer, buildStatementEntries(l), l.Summary, timeutil.Now())
}

func (s *ReportService) ReceiptPDF(ctx context.Context, saleID uuid.UUID) ([]byte, error) {
	sale, err := s.Sales.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	var customer *models.Customer
	if sale.CustomerID != nil {
		customer, err = s.Customers.Get(ctx, *sale.CustomerID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}
	return buildReceiptPDF(s.BusinessName, sale, customer)
}

type archiveJob struct {
	name        string
	contentType string
	build       func(ctx context.Context) ([]byte, error)
}

type archiveResult struct {
	key string
	err error
}

// Archive builds the current month's exports concurrently and uploads them
// under reports/YYYY/MM/.
func (s *ReportService) Archive(ctx context.Context) (*models.ArchiveResult, error) {
	if s.Storage == nil {
		return nil, ErrStorageDisabled
	}
	now := timeutil.Now()
	stamp := now.Format("2006-01")

	list := []archiveJob{
		{
			name:        "debtors-" + stamp + ".csv",
			contentType: ContentTypeCSV,
			build:       s.DebtorsCSV,
		},
		{
			name:        "sales-" + stamp + ".xlsx",
			contentType: ContentTypeXLSX,
			build: func(ctx context.Context) ([]byte, error) {
				return s.SalesXLSX(ctx, "", "")
			},
		},
	}

	jobs := make(chan archiveJob, len(list))
	results := make(chan archiveResult, len(list))

	var wg sync.WaitGroup
	for i := 0; i < archiveWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				key := storage.ReportKey(now, job.name)
				data, err := job.build(ctx)
				if err == nil {
					err = s.Storage.Upload(ctx, key, data, job.contentType)
				}
				results <- archiveResult{key: key, err: err}
			}
		}()
	}

	for _, job := range list {
		jobs <- job
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := &models.ArchiveResult{Keys: []string{}}
	var firstErr error
	for r := range results {
		if r.err != nil {
			config.LogError(s.Logger, "ReportService", "Archive", "upload "+r.key, nil, r.err)
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out.Keys = append(out.Keys, r.key)
	}
	if firstErr != nil {
		return nil, fmt.Errorf("failed to archive reports: %w", firstErr)
	}
	sort.Strings(out.Keys)
	return out, nil
}

func buildDebtorsCSV(rows []models.DebtorRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"Customer", "Phone", "Total Debt", "Refunded", "Paid", "Remaining"})
	for _, r := range rows {
		w.Write([]string{
			r.Name,
			r.Phone,
			r.TotalDebt.StringFixed(2),
			r.TotalRefunded.StringFixed(2),
			r.TotalPaid.StringFixed(2),
			r.RemainingDebt.StringFixed(2),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

const (
	salesSheet = "Sales"
	itemsSheet = "Items"
)

func buildSalesXLSX(sales []*models.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", salesSheet)
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	saleHeaders := []string{"Sale ID", "Date", "Payment Type", "Status", "Total", "Paid", "Note"}
	itemHeaders := []string{"Sale ID", "Product", "Barcode", "Quantity", "Unit Price", "Total"}
	if err := writeRow(f, salesSheet, 1, toCells(saleHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, toCells(itemHeaders)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, sale := range sales {
		total, _ := sale.TotalAmount.Float64()
		paid, _ := sale.PaidAmount.Float64()
		row := []any{
			sale.ID.String(),
			timeutil.Format(sale.CreatedAt, timeutil.DateTimeLayout),
			sale.PaymentType,
			sale.Status,
			total,
			paid,
			sale.Note,
		}
		if err := writeRow(f, salesSheet, i+2, row); err != nil {
			return nil, err
		}
		for _, item := range sale.Items {
			price, _ := item.UnitPrice.Float64()
			lineTotal, _ := item.Total.Float64()
			if err := writeRow(f, itemsSheet, itemRow, []any{
				sale.ID.String(), item.Name, item.Barcode, item.Quantity, price, lineTotal,
			}); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// StatementEntry is one line of a customer statement.
type StatementEntry struct {
	Date        time.Time
	Kind        string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
}

// buildStatementEntries orders the ledger's records by date. Debts are
// debits; refunds and payments are credits. Ties keep debts first so a
// same-day sale and payment never dip below zero.
func buildStatementEntries(l *ledger.Ledger) []StatementEntry {
	entries := make([]StatementEntry, 0, len(l.Debts)+len(l.Refunds)+len(l.Payments))
	for _, d := range l.Debts {
		entries = append(entries, StatementEntry{
			Date:        d.CreatedAt,
			Kind:        "Debt",
			Description: d.Description,
			Debit:       d.Amount,
		})
	}
	for _, r := range l.Refunds {
		desc := r.Reason
		if r.ProductName != "" {
			desc = fmt.Sprintf("%s x%d", r.ProductName, r.Quantity)
		}
		entries = append(entries, StatementEntry{
			Date:        r.CreatedAt,
			Kind:        "Refund",
			Description: desc,
			Credit:      r.Amount,
		})
	}
	for _, p := range l.Payments {
		entries = append(entries, StatementEntry{
			Date:        p.PaymentDate,
			Kind:        "Payment",
			Description: p.Type,
			Credit:      p.Amount,
		})
	}

	rank := map[string]int{"Debt": 0, "Refund": 1, "Payment": 2}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return rank[entries[i].Kind] < rank[entries[j].Kind]
	})

	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = balance
	}
	return entries
}

func rupees(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}

func buildStatementPDF(business string, customer *models.Customer, entries []StatementEntry, sum ledger.Summary, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, business+" - Customer Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Generated: "+timeutil.Format(generated, timeutil.DisplayLayout), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Name: "+customer.Name, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Phone: "+customer.Phone, "RB", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 7, "Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(62, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Debit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Credit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(26, 7, "Balance", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, e := range entries {
		debit, credit := "", ""
		if !e.Debit.IsZero() {
			debit = e.Debit.StringFixed(2)
		}
		if !e.Credit.IsZero() {
			credit = e.Credit.StringFixed(2)
		}
		pdf.CellFormat(30, 6, timeutil.Format(e.Date, timeutil.DateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, e.Kind, "1", 0, "L", false, 0, "")
		pdf.CellFormat(62, 6, truncate(e.Description, 38), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, debit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, credit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, e.Balance.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	if len(entries) == 0 {
		pdf.CellFormat(190, 6, "No active records", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	summaryLine(pdf, "Total Debt", rupees(sum.TotalDebt))
	summaryLine(pdf, "Refunded", rupees(sum.TotalRefunded))
	summaryLine(pdf, "Paid", rupees(sum.TotalPaid))
	pdf.SetFont("Arial", "B", 11)
	summaryLine(pdf, "Remaining", rupees(sum.RemainingDebt))

	return outputPDF(pdf)
}

func buildReceiptPDF(business string, sale *models.Sale, customer *models.Customer) ([]byte, error) {
	// 80mm roll
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: 80, Ht: 200},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(true, 4)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(72, 7, business, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(72, 4, "Receipt "+sale.ID.String()[:8], "", 1, "C", false, 0, "")
	pdf.CellFormat(72, 4, timeutil.Format(sale.CreatedAt, timeutil.DisplayLayout), "", 1, "C", false, 0, "")
	if customer != nil {
		pdf.CellFormat(72, 4, "Customer: "+customer.Name, "", 1, "C", false, 0, "")
	}
	if sale.Status == models.SaleStatusCancelled {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(72, 5, "CANCELLED", "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(34, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(8, 5, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(14, 5, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(16, 5, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, item := range sale.Items {
		pdf.CellFormat(34, 5, truncate(item.Name, 22), "", 0, "L", false, 0, "")
		pdf.CellFormat(8, 5, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(14, 5, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(16, 5, item.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(42, 6, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, rupees(sale.TotalAmount), "T", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(42, 5, "Paid ("+sale.PaymentType+")", "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 5, rupees(sale.PaidAmount), "", 1, "R", false, 0, "")
	if due := sale.TotalAmount.Sub(sale.PaidAmount); due.IsPositive() {
		pdf.CellFormat(42, 5, "On credit", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, rupees(due), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
	pdf.CellFormat(72, 4, "Thank you!", "", 1, "C", false, 0, "")

	return outputPDF(pdf)
}

func summaryLine(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(95, 7, label, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, value, "RB", 1, "R", false, 0, "")
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
