// Package report serves the read side of settlement: summaries, rollups by
// organization and merchant, daily views and statements. Aggregation runs
// in Go over the entries of the requested window; heavier rollups are
// cached in redis for a short TTL.
package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"billpay/internal/models"
	"billpay/internal/repositories"
	"billpay/internal/repositories/cache"
	"billpay/internal/services/settlement"
	"billpay/internal/utils/dateutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const cacheTTL = 60 * time.Second

// Service is the reporting aggregator.
type Service interface {
	// Summary rolls up the window's totals; a non-empty entityType scopes
	// the rollup to that entity level.
	Summary(ctx context.Context, r Range, entityType string) (*Summary, error)
	ByOrganization(ctx context.Context, r Range, orgType models.OrganizationType, search string) ([]OrgSummary, error)
	OrganizationDetail(ctx context.Context, orgID uuid.UUID, r Range) (*OrgDetail, error)

	MerchantDaily(ctx context.Context, r Range) ([]DailyRow, error)
	MerchantDailyDetail(ctx context.Context, date time.Time) (*DailyDetail, error)
	MerchantStatement(ctx context.Context, merchantID uuid.UUID, r Range) (*MerchantStatement, error)

	OrgDaily(ctx context.Context, r Range) ([]OrgDailyRow, error)
	OrgDailyDetail(ctx context.Context, date time.Time) (*OrgDailyDetail, error)
	OrgStatement(ctx context.Context, orgID uuid.UUID, r Range) (*OrgStatement, error)
}

type service struct {
	entries   repositories.SettlementEntryRepository
	orgs      repositories.OrganizationRepository
	merchants repositories.MerchantRepository
	cache     *cache.CacheService
	policy    settlement.Policy
}

// NewService creates the reporting aggregator.
func NewService(
	entries repositories.SettlementEntryRepository,
	orgs repositories.OrganizationRepository,
	merchants repositories.MerchantRepository,
	cacheSvc *cache.CacheService,
	policy settlement.Policy,
) Service {
	if entries == nil {
		panic("settlement entry repository is required")
	}
	if orgs == nil {
		panic("organization repository is required")
	}
	if merchants == nil {
		panic("merchant repository is required")
	}
	return &service{
		entries:   entries,
		orgs:      orgs,
		merchants: merchants,
		cache:     cacheSvc,
		policy:    policy,
	}
}

func (s *service) window(r Range) (time.Time, time.Time) {
	return dateutil.RangeWindow(r.Start, r.End)
}

func (s *service) load(r Range, pathPrefix string) ([]models.SettlementEntry, error) {
	start, end := s.window(r)
	entries, err := s.entries.FindInRange(start, end, pathPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement entries: %w", err)
	}
	return reportable(entries), nil
}

func (s *service) Summary(ctx context.Context, r Range, entityType string) (*Summary, error) {
	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}
	txCount, gross, fee, credit, debit := scopedTotals(entries, entityType)
	return &Summary{
		StartDate:         dateutil.FormatDate(r.Start),
		EndDate:           dateutil.FormatDate(r.End),
		TotalTransactions: txCount,
		TotalAmount:       gross,
		CreditAmount:      credit,
		DebitAmount:       debit,
		TotalFeeAmount:    fee,
		TotalNetAmount:    gross.Sub(fee),
	}, nil
}

func (s *service) ByOrganization(ctx context.Context, r Range, orgType models.OrganizationType, search string) ([]OrgSummary, error) {
	key := s.cacheKey("by-org", fmt.Sprintf("%s:%s:%s:%s",
		dateutil.FormatDate(r.Start), dateutil.FormatDate(r.End), orgType, search))
	var cached []OrgSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	orgs, err := s.orgs.List(orgType, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}

	summaries := make([]OrgSummary, 0, len(orgs))
	for _, org := range orgs {
		summaries = append(summaries, s.orgSummary(org, entries))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Path < summaries[j].Path })

	s.cacheSet(ctx, key, summaries)
	return summaries, nil
}

// orgSummary rolls the subtree volume and the org's own earnings out of a
// pre-loaded entry window.
func (s *service) orgSummary(org models.Organization, entries []models.SettlementEntry) OrgSummary {
	sum := OrgSummary{
		OrganizationID: org.ID,
		OrgCode:        org.OrgCode,
		Name:           org.Name,
		OrgType:        string(org.OrgType),
		Path:           org.Path,
		TotalAmount:    decimal.Zero,
		FeeEarned:      decimal.Zero,
		TotalNetAmount: decimal.Zero,
	}
	events := map[uuid.UUID]struct{}{}
	for _, e := range entries {
		if !inSubtree(e, org.Path) {
			continue
		}
		if isMerchantEntry(e) {
			sum.TotalAmount = sum.TotalAmount.Add(e.Amount)
			sum.TotalNetAmount = sum.TotalNetAmount.Add(e.NetAmount)
			events[e.TransactionEventID] = struct{}{}
			continue
		}
		if e.EntityPath == org.Path {
			sum.FeeEarned = sum.FeeEarned.Add(earned(e, s.policy))
		}
	}
	sum.TransactionCount = len(events)
	return sum
}

func (s *service) OrganizationDetail(ctx context.Context, orgID uuid.UUID, r Range) (*OrgDetail, error) {
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizationNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	entries, err := s.load(r, org.Path)
	if err != nil {
		return nil, err
	}

	merchantRollups, err := s.namedMerchantRollups(entries)
	if err != nil {
		return nil, err
	}

	feesByPath := earningsByPath(entries, s.policy)
	hierarchyFees := make([]HierarchyFee, 0, len(feesByPath))
	for _, f := range feesByPath {
		hierarchyFees = append(hierarchyFees, *f)
	}
	sort.Slice(hierarchyFees, func(i, j int) bool { return hierarchyFees[i].EntityPath < hierarchyFees[j].EntityPath })

	_, gross, fee := summarize(entries)
	calc := Calculation{
		TotalAmount:       gross,
		TotalFeeAmount:    fee,
		OwnFeeAmount:      decimal.Zero,
		ChildOrgFeeAmount: decimal.Zero,
		NetAmount:         gross.Sub(fee),
	}
	for _, f := range hierarchyFees {
		switch {
		case f.EntityPath == org.Path:
			calc.OwnFeeAmount = calc.OwnFeeAmount.Add(f.FeeEarned)
		case strictlyBelowPath(f.EntityPath, org.Path):
			calc.ChildOrgFeeAmount = calc.ChildOrgFeeAmount.Add(f.FeeEarned)
		}
	}

	return &OrgDetail{
		Summary:             s.orgSummary(*org, entries),
		MerchantSettlements: merchantRollups,
		HierarchyFees:       hierarchyFees,
		Calculation:         calc,
	}, nil
}

func (s *service) MerchantDaily(ctx context.Context, r Range) ([]DailyRow, error) {
	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}
	byDate := groupByDate(entries)
	rows := make([]DailyRow, 0, len(byDate))
	for _, date := range sortedDates(byDate) {
		rows = append(rows, dailyRow(date, byDate[date]))
	}
	return rows, nil
}

func (s *service) MerchantDailyDetail(ctx context.Context, date time.Time) (*DailyDetail, error) {
	r := Range{Start: date, End: date}
	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}
	merchants, err := s.namedMerchantRollups(entries)
	if err != nil {
		return nil, err
	}
	key := dateutil.FormatDate(date)
	return &DailyDetail{
		Date:      key,
		Totals:    dailyRow(key, entries),
		Merchants: merchants,
	}, nil
}

func (s *service) MerchantStatement(ctx context.Context, merchantID uuid.UUID, r Range) (*MerchantStatement, error) {
	merchant, err := s.merchants.GetByID(merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}

	key := s.cacheKey("merchant-statement", fmt.Sprintf("%s:%s:%s",
		merchantID, dateutil.FormatDate(r.Start), dateutil.FormatDate(r.End)))
	var cached MerchantStatement
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}
	own := entries[:0:0]
	for _, e := range entries {
		if e.MerchantID == merchantID && isMerchantEntry(e) {
			own = append(own, e)
		}
	}

	byDate := groupByDate(own)
	days := make([]DailyRow, 0, len(byDate))
	for _, date := range sortedDates(byDate) {
		days = append(days, dailyRow(date, byDate[date]))
	}

	totals := MerchantRollup{
		MerchantID:     merchant.ID,
		MerchantCode:   merchant.MerchantCode,
		Name:           merchant.Name,
		TotalAmount:    decimal.Zero,
		TotalFeeAmount: decimal.Zero,
		TotalNetAmount: decimal.Zero,
	}
	for _, d := range days {
		totals.TransactionCount += d.TransactionCount
		totals.TotalAmount = totals.TotalAmount.Add(d.TotalAmount)
		totals.TotalFeeAmount = totals.TotalFeeAmount.Add(d.TotalFeeAmount)
		totals.TotalNetAmount = totals.TotalNetAmount.Add(d.TotalNetAmount)
	}

	statement := &MerchantStatement{
		MerchantID:   merchant.ID,
		MerchantCode: merchant.MerchantCode,
		Name:         merchant.Name,
		StartDate:    dateutil.FormatDate(r.Start),
		EndDate:      dateutil.FormatDate(r.End),
		Days:         days,
		Totals:       totals,
	}
	s.cacheSet(ctx, key, statement)
	return statement, nil
}

func (s *service) OrgDaily(ctx context.Context, r Range) ([]OrgDailyRow, error) {
	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}
	byDate := groupByDate(entries)
	rows := make([]OrgDailyRow, 0, len(byDate))
	for _, date := range sortedDates(byDate) {
		rows = append(rows, s.orgDailyRow(date, byDate[date]))
	}
	return rows, nil
}

func (s *service) orgDailyRow(date string, entries []models.SettlementEntry) OrgDailyRow {
	row := OrgDailyRow{
		Date:        date,
		TotalAmount: decimal.Zero,
		FeeEarned:   decimal.Zero,
	}
	orgs := map[string]struct{}{}
	for _, e := range entries {
		if isMerchantEntry(e) {
			row.TotalAmount = row.TotalAmount.Add(e.Amount)
			continue
		}
		if e.EntityID != nil {
			orgs[e.EntityPath] = struct{}{}
		}
		row.FeeEarned = row.FeeEarned.Add(earned(e, s.policy))
	}
	row.OrganizationCount = len(orgs)
	return row
}

func (s *service) OrgDailyDetail(ctx context.Context, date time.Time) (*OrgDailyDetail, error) {
	r := Range{Start: date, End: date}
	entries, err := s.load(r, "")
	if err != nil {
		return nil, err
	}

	feesByPath := earningsByPath(entries, s.policy)
	paths := make([]string, 0, len(feesByPath))
	for p, f := range feesByPath {
		if f.EntityID != nil {
			paths = append(paths, p)
		}
	}
	orgs, err := s.orgs.GetByPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizations: %w", err)
	}

	rows := make([]OrgEarningsRow, 0, len(orgs))
	for _, org := range orgs {
		f, ok := feesByPath[org.Path]
		if !ok {
			continue
		}
		rows = append(rows, OrgEarningsRow{
			OrganizationID: org.ID,
			OrgCode:        org.OrgCode,
			Name:           org.Name,
			OrgType:        string(org.OrgType),
			Path:           org.Path,
			TotalAmount:    subtreeGross(entries, org.Path),
			FeeEarned:      f.FeeEarned,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })

	key := dateutil.FormatDate(date)
	return &OrgDailyDetail{
		Date:          key,
		Totals:        s.orgDailyRow(key, entries),
		Organizations: rows,
	}, nil
}

func (s *service) OrgStatement(ctx context.Context, orgID uuid.UUID, r Range) (*OrgStatement, error) {
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizationNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	key := s.cacheKey("org-statement", fmt.Sprintf("%s:%s:%s",
		orgID, dateutil.FormatDate(r.Start), dateutil.FormatDate(r.End)))
	var cached OrgStatement
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	entries, err := s.load(r, org.Path)
	if err != nil {
		return nil, err
	}

	byDate := groupByDate(entries)
	days := make([]DailyRow, 0, len(byDate))
	totalEarned := decimal.Zero
	for _, date := range sortedDates(byDate) {
		days = append(days, dailyRow(date, byDate[date]))
		for _, e := range byDate[date] {
			if !isMerchantEntry(e) && e.EntityPath == org.Path {
				totalEarned = totalEarned.Add(earned(e, s.policy))
			}
		}
	}

	statement := &OrgStatement{
		OrganizationID: org.ID,
		OrgCode:        org.OrgCode,
		Name:           org.Name,
		StartDate:      dateutil.FormatDate(r.Start),
		EndDate:        dateutil.FormatDate(r.End),
		Days:           days,
		TotalEarned:    totalEarned,
	}
	s.cacheSet(ctx, key, statement)
	return statement, nil
}

// namedMerchantRollups joins per-merchant rollups with merchant master
// data, ordered by merchant code.
func (s *service) namedMerchantRollups(entries []models.SettlementEntry) ([]MerchantRollup, error) {
	rollups := rollupMerchants(entries)
	ids := make([]uuid.UUID, 0, len(rollups))
	for id := range rollups {
		ids = append(ids, id)
	}
	merchants, err := s.merchants.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchants: %w", err)
	}
	for _, m := range merchants {
		if r, ok := rollups[m.ID]; ok {
			r.MerchantCode = m.MerchantCode
			r.Name = m.Name
		}
	}

	out := make([]MerchantRollup, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantCode < out[j].MerchantCode })
	return out, nil
}

func subtreeGross(entries []models.SettlementEntry, root string) decimal.Decimal {
	gross := decimal.Zero
	for _, e := range entries {
		if isMerchantEntry(e) && inSubtree(e, root) {
			gross = gross.Add(e.Amount)
		}
	}
	return gross
}

func strictlyBelowPath(path, root string) bool {
	return len(path) > len(root) && path[:len(root)+1] == root+models.PathSeparator
}

func (s *service) cacheKey(kind, value string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.GenerateKey("report", kind, value)
}

func (s *service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || key == "" {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Printf("report cache read failed for %s: %v", key, err)
		return false
	}
	return hit
}

func (s *service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, value, cacheTTL); err != nil {
		log.Printf("report cache write failed for %s: %v", key, err)
	}
}
