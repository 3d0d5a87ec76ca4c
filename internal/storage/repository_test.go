package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"eglise/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "eglise.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func memberInput(card, name, memberType string) core.MemberInput {
	return core.MemberInput{
		CardNumber: card,
		FullName:   name,
		Gender:     core.GenderMale,
		MemberType: memberType,
	}
}

func contributionInput(memberID int64, date, period, amount string) core.ContributionInput {
	return core.ContributionInput{
		MemberID:    memberID,
		PaymentDate: date,
		Period:      period,
		Amount:      amount,
	}
}

func mustCreateMember(t *testing.T, repo *SQLiteRepository, card, name, memberType string) core.Member {
	t.Helper()
	m, err := repo.CreateMember(context.Background(), memberInput(card, name, memberType))
	if err != nil {
		t.Fatalf("create member %s: %v", card, err)
	}
	return m
}

func mustCreateContribution(t *testing.T, repo *SQLiteRepository, memberID int64, date, period, amount string) core.Contribution {
	t.Helper()
	c, err := repo.CreateContribution(context.Background(), contributionInput(memberID, date, period, amount))
	if err != nil {
		t.Fatalf("create contribution %s/%s: %v", date, amount, err)
	}
	return c
}

// ── Members ──────────────────────────────────────────────────────────────

func TestCreateMember(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m, err := repo.CreateMember(ctx, memberInput("C001", "Jean Dupont", core.TypeCommuniant))
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if m.ID <= 0 {
		t.Errorf("ID = %d, want > 0", m.ID)
	}
	if m.CardNumber != "C001" || m.FullName != "Jean Dupont" || m.MemberType != core.TypeCommuniant {
		t.Errorf("unexpected member %+v", m)
	}
	if m.CreatedAt == "" {
		t.Error("CreatedAt not set")
	}
	if _, err := time.Parse(core.TimestampLayout, m.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q not in timestamp layout: %v", m.CreatedAt, err)
	}
}

func TestCreateMemberValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input core.MemberInput
	}{
		{name: "empty card number", input: memberInput("", "Jean", core.TypeCommuniant)},
		{name: "whitespace full name", input: memberInput("C001", "  ", core.TypeCommuniant)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CreateMember(ctx, tt.input)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("CreateMember error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateMemberDuplicateCard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreateMember(t, repo, "C001", "Jean", core.TypeCommuniant)
	_, err := repo.CreateMember(ctx, memberInput("C001", "Pierre", core.TypeCommuniant))
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate card error = %v, want ErrConflict", err)
	}

	// The failed insert must leave the store unchanged.
	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].FullName != "Jean" {
		t.Errorf("store changed by failed insert: %+v", members)
	}
}

func TestListMembersOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreateMember(t, repo, "C002", "Charles", core.TypeCommuniant)
	mustCreateMember(t, repo, "C001", "Alice", core.TypeCathekomen)
	mustCreateMember(t, repo, "C003", "Bob", core.TypeCommuniant)

	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	want := []string{"Alice", "Bob", "Charles"}
	if len(members) != len(want) {
		t.Fatalf("got %d members, want %d", len(members), len(want))
	}
	for i, name := range want {
		if members[i].FullName != name {
			t.Errorf("members[%d] = %q, want %q", i, members[i].FullName, name)
		}
	}
}

func TestListMembersByType(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateMember(t, repo, "C002", "Bob", core.TypeCathekomen)
	mustCreateMember(t, repo, "C003", "Carol", core.TypeCommuniant)

	comm, err := repo.ListMembersByType(ctx, core.TypeCommuniant)
	if err != nil {
		t.Fatalf("ListMembersByType: %v", err)
	}
	if len(comm) != 2 {
		t.Errorf("communiants = %d, want 2", len(comm))
	}
	cath, err := repo.ListMembersByType(ctx, core.TypeCathekomen)
	if err != nil {
		t.Fatalf("ListMembersByType: %v", err)
	}
	if len(cath) != 1 {
		t.Errorf("cathekomens = %d, want 1", len(cath))
	}
}

func TestGetMemberNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetMember(context.Background(), 42)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetMember(42) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateMember(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)

	in := memberInput("C001-U", "Alice Martin", core.TypeCommuniant)
	in.Phone = "+261 34 00 000 00"
	updated, err := repo.UpdateMember(ctx, m.ID, in)
	if err != nil {
		t.Fatalf("UpdateMember: %v", err)
	}
	if updated.CardNumber != "C001-U" || updated.FullName != "Alice Martin" || updated.Phone != in.Phone {
		t.Errorf("unexpected update result %+v", updated)
	}
	if updated.ID != m.ID {
		t.Errorf("ID changed: %d -> %d", m.ID, updated.ID)
	}
	if updated.CreatedAt != m.CreatedAt {
		t.Errorf("CreatedAt changed: %q -> %q", m.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdateMemberNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.UpdateMember(context.Background(), 42, memberInput("C001", "Alice", core.TypeCommuniant))
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateMember(42) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMemberCascade(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2024-03-01", "2024", "5000")

	if err := repo.DeleteMember(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}

	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("members remain after delete: %+v", members)
	}
	contribs, err := repo.ListContributions(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListContributions: %v", err)
	}
	if len(contribs) != 0 {
		t.Errorf("orphaned contributions remain: %+v", contribs)
	}
}

func TestDeleteMemberNonexistent(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.DeleteMember(context.Background(), 42); err != nil {
		t.Errorf("deleting a nonexistent member should not be an error, got %v", err)
	}
}

func TestTransferMembers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m1 := mustCreateMember(t, repo, "C001", "Alice", core.TypeCathekomen)
	m2 := mustCreateMember(t, repo, "C002", "Bob", core.TypeCathekomen)

	n, err := repo.TransferMembers(ctx, []int64{m1.ID, m2.ID}, core.TypeCommuniant)
	if err != nil {
		t.Fatalf("TransferMembers: %v", err)
	}
	if n != 2 {
		t.Errorf("transferred = %d, want 2", n)
	}

	comm, err := repo.ListMembersByType(ctx, core.TypeCommuniant)
	if err != nil {
		t.Fatalf("ListMembersByType: %v", err)
	}
	if len(comm) != 2 {
		t.Errorf("communiants after transfer = %d, want 2", len(comm))
	}
}

func TestTransferMembersEmptyIDs(t *testing.T) {
	repo := newTestRepo(t)
	n, err := repo.TransferMembers(context.Background(), nil, core.TypeCommuniant)
	if err != nil {
		t.Fatalf("TransferMembers: %v", err)
	}
	if n != 0 {
		t.Errorf("transferred = %d, want 0", n)
	}
}

func TestTransferMembersInvalidType(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.TransferMembers(context.Background(), []int64{1}, "Visitor")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("TransferMembers error = %v, want ErrValidation", err)
	}
}

func TestListMembersByTypeWithTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("no contributions", func(t *testing.T) {
		mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
		list, err := repo.ListMembersByTypeWithTotal(ctx, core.TypeCommuniant)
		if err != nil {
			t.Fatalf("ListMembersByTypeWithTotal: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("got %d members, want 1", len(list))
		}
		if list[0].TotalContributions != "0" {
			t.Errorf("total = %q, want \"0\"", list[0].TotalContributions)
		}
	})

	t.Run("sum with truncated fraction", func(t *testing.T) {
		m := mustCreateMember(t, repo, "C002", "Bob", core.TypeCommuniant)
		mustCreateContribution(t, repo, m.ID, "2024-01-15", "2024", "10000")
		mustCreateContribution(t, repo, m.ID, "2024-06-01", "2024", "5000.50")

		list, err := repo.ListMembersByTypeWithTotal(ctx, core.TypeCommuniant)
		if err != nil {
			t.Fatalf("ListMembersByTypeWithTotal: %v", err)
		}
		// Alice sorts before Bob.
		if len(list) != 2 {
			t.Fatalf("got %d members, want 2", len(list))
		}
		if list[1].FullName != "Bob" {
			t.Fatalf("list[1] = %q, want Bob", list[1].FullName)
		}
		if list[1].TotalContributions != "15000" {
			t.Errorf("Bob total = %q, want \"15000\"", list[1].TotalContributions)
		}
	})
}

// ── Contributions ────────────────────────────────────────────────────────

func TestCreateContribution(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	c, err := repo.CreateContribution(ctx, contributionInput(m.ID, "2024-03-15", "2024", "12000"))
	if err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}
	if c.ID <= 0 {
		t.Errorf("ID = %d, want > 0", c.ID)
	}
	if c.RecordedYear != 2024 {
		t.Errorf("RecordedYear = %d, want 2024", c.RecordedYear)
	}
	if c.Amount.String() != "12000" {
		t.Errorf("Amount = %s, want 12000", c.Amount)
	}

	s, err := repo.GetYearSummary(ctx, 2024)
	if err != nil {
		t.Fatalf("GetYearSummary: %v", err)
	}
	if s == nil {
		t.Fatal("year summary not auto-created")
	}
	if s.Total.String() != "12000" {
		t.Errorf("year total = %s, want 12000", s.Total)
	}
	if s.Closed() {
		t.Error("fresh year summary should be open")
	}
}

func TestCreateContributionValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)

	tests := []struct {
		name   string
		date   string
		amount string
	}{
		{name: "unparseable amount", date: "2024-03-15", amount: "abc"},
		{name: "negative amount", date: "2024-03-15", amount: "-500"},
		{name: "malformed date", date: "15-03-2024", amount: "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CreateContribution(ctx, contributionInput(m.ID, tt.date, "2024", tt.amount))
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("CreateContribution error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateContributionUnknownMember(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateContribution(context.Background(), contributionInput(42, "2024-03-15", "2024", "1000"))
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("CreateContribution error = %v, want ErrConflict", err)
	}

	// The rejected insert must not have touched the year summary either.
	s, err := repo.GetYearSummary(context.Background(), 2024)
	if err != nil {
		t.Fatalf("GetYearSummary: %v", err)
	}
	if s != nil {
		t.Errorf("year summary created by failed insert: %+v", s)
	}
}

func TestCreateContributionRollsBackOnRecomputeFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2024-01-01", "2024", "100")

	// A corrupt amount makes the recompute fail after the insert has
	// already succeeded inside the same transaction.
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO contributions (member_id, payment_date, period, amount, recorded_year)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, "2024-02-01", "2024", "not-a-number", 2024)
	if err != nil {
		t.Fatalf("plant corrupt row: %v", err)
	}

	if _, err := repo.CreateContribution(ctx, contributionInput(m.ID, "2024-03-15", "2024", "50")); err == nil {
		t.Fatal("CreateContribution succeeded despite failing recompute")
	}

	var n int
	if err := repo.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contributions WHERE amount = '50'").Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 0 {
		t.Errorf("insert survived the failed recompute, found %d rows", n)
	}

	s, err := repo.GetYearSummary(ctx, 2024)
	if err != nil || s == nil {
		t.Fatalf("GetYearSummary: %v, %v", s, err)
	}
	if s.Total.String() != "100" {
		t.Errorf("year total = %s, want 100 unchanged", s.Total)
	}
}

func TestDeleteContributionRecomputesTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	c1 := mustCreateContribution(t, repo, m.ID, "2024-01-01", "2024", "10000")
	mustCreateContribution(t, repo, m.ID, "2024-06-01", "2024", "5000")

	s, err := repo.GetYearSummary(ctx, 2024)
	if err != nil || s == nil {
		t.Fatalf("GetYearSummary: %v, %v", s, err)
	}
	if s.Total.String() != "15000" {
		t.Fatalf("year total = %s, want 15000", s.Total)
	}

	if err := repo.DeleteContribution(ctx, c1.ID); err != nil {
		t.Fatalf("DeleteContribution: %v", err)
	}
	s, err = repo.GetYearSummary(ctx, 2024)
	if err != nil || s == nil {
		t.Fatalf("GetYearSummary: %v, %v", s, err)
	}
	if s.Total.String() != "5000" {
		t.Errorf("year total after delete = %s, want 5000", s.Total)
	}
}

func TestDeleteContributionNotFound(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.DeleteContribution(context.Background(), 42)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteContribution(42) error = %v, want ErrNotFound", err)
	}
}

func TestListContributionsOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2024-01-01", "T1", "100")
	mustCreateContribution(t, repo, m.ID, "2024-09-01", "T3", "300")
	mustCreateContribution(t, repo, m.ID, "2024-05-01", "T2", "200")

	byMember, err := repo.ListContributions(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListContributions: %v", err)
	}
	if len(byMember) != 3 || byMember[0].Period != "T3" || byMember[2].Period != "T1" {
		t.Errorf("member contributions not newest-first: %+v", byMember)
	}

	byYear, err := repo.ListContributionsByYear(ctx, 2024)
	if err != nil {
		t.Fatalf("ListContributionsByYear: %v", err)
	}
	if len(byYear) != 3 || byYear[0].Period != "T3" {
		t.Errorf("year contributions not newest-first: %+v", byYear)
	}

	// The archive view reads oldest-first.
	archive, err := repo.ListContributionsByYearWithMember(ctx, 2024)
	if err != nil {
		t.Fatalf("ListContributionsByYearWithMember: %v", err)
	}
	if len(archive) != 3 || archive[0].Period != "T1" || archive[2].Period != "T3" {
		t.Errorf("archive contributions not oldest-first: %+v", archive)
	}
	if archive[0].MemberName != "Alice" {
		t.Errorf("MemberName = %q, want Alice", archive[0].MemberName)
	}
}

func TestYearTotalDecimalExactness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	for i := 0; i < 3; i++ {
		mustCreateContribution(t, repo, m.ID, "2024-02-01", "2024", "0.1")
	}

	s, err := repo.GetYearSummary(ctx, 2024)
	if err != nil || s == nil {
		t.Fatalf("GetYearSummary: %v, %v", s, err)
	}
	if s.Total.String() != "0.3" {
		t.Errorf("year total = %s, want exactly 0.3", s.Total)
	}
}

// ── Year summaries ───────────────────────────────────────────────────────

func TestListYearSummariesOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2021-01-01", "2021", "1000")
	mustCreateContribution(t, repo, m.ID, "2023-01-01", "2023", "2000")
	mustCreateContribution(t, repo, m.ID, "2022-01-01", "2022", "3000")

	list, err := repo.ListYearSummaries(ctx)
	if err != nil {
		t.Fatalf("ListYearSummaries: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d summaries, want 3", len(list))
	}
	for i, want := range []int{2023, 2022, 2021} {
		if list[i].Year != want {
			t.Errorf("list[%d].Year = %d, want %d", i, list[i].Year, want)
		}
	}
}

func TestCloseAndReopenYear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2022-01-01", "2022", "50000")

	note := "Test note"
	closed, err := repo.CloseYear(ctx, 2022, &note)
	if err != nil {
		t.Fatalf("CloseYear: %v", err)
	}
	if !closed.Closed() {
		t.Error("closed_at not set")
	}
	if closed.Note == nil || *closed.Note != "Test note" {
		t.Errorf("note = %v, want Test note", closed.Note)
	}
	if closed.Total.String() != "50000" {
		t.Errorf("total = %s, want 50000", closed.Total)
	}

	reopened, err := repo.ReopenYear(ctx, 2022)
	if err != nil {
		t.Fatalf("ReopenYear: %v", err)
	}
	if reopened.Closed() || reopened.Note != nil {
		t.Errorf("reopen left closed_at/note set: %+v", reopened)
	}
	if reopened.Total.String() != "50000" {
		t.Errorf("reopen changed total: %s", reopened.Total)
	}
}

func TestCloseYearRefreshesTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2022-01-01", "2022", "10000")

	// Closing must pick up the freshest data with no explicit recompute.
	mustCreateContribution(t, repo, m.ID, "2022-06-01", "2022", "2500")
	closed, err := repo.CloseYear(ctx, 2022, nil)
	if err != nil {
		t.Fatalf("CloseYear: %v", err)
	}
	if closed.Total.String() != "12500" {
		t.Errorf("total at close = %s, want 12500", closed.Total)
	}
}

func TestCloseYearWithoutContributions(t *testing.T) {
	repo := newTestRepo(t)
	closed, err := repo.CloseYear(context.Background(), 2021, nil)
	if err != nil {
		t.Fatalf("CloseYear: %v", err)
	}
	if !closed.Closed() {
		t.Error("closed_at not set")
	}
	if closed.Total.String() != "0" {
		t.Errorf("total = %s, want 0", closed.Total)
	}
}

func TestReopenYearNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.ReopenYear(context.Background(), 1999)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ReopenYear(1999) error = %v, want ErrNotFound", err)
	}
}

func TestRecomputeIdempotence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2022-01-01", "2022", "1234.56")

	// Close twice without intervening writes: total must not change.
	first, err := repo.CloseYear(ctx, 2022, nil)
	if err != nil {
		t.Fatalf("CloseYear: %v", err)
	}
	second, err := repo.CloseYear(ctx, 2022, nil)
	if err != nil {
		t.Fatalf("CloseYear: %v", err)
	}
	if !first.Total.Equal(second.Total) {
		t.Errorf("recompute not idempotent: %s then %s", first.Total, second.Total)
	}
}

func TestCheckAndClosePreviousYear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	mustCreateContribution(t, repo, m.ID, "2024-05-01", "2024", "1234567")

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	closed, err := repo.CheckAndClosePreviousYear(ctx, now)
	if err != nil {
		t.Fatalf("CheckAndClosePreviousYear: %v", err)
	}
	if closed == nil {
		t.Fatal("expected a close to happen")
	}
	if closed.Year != 2024 {
		t.Errorf("closed year = %d, want 2024", closed.Year)
	}
	if !closed.Closed() {
		t.Error("closed_at not set")
	}
	if closed.Note == nil || *closed.Note != "CONTRIBUTIONS de l'année 2024 / TOTAL : 1 234 567 Ariary" {
		t.Errorf("unexpected note: %v", closed.Note)
	}

	// Second run is a no-op.
	again, err := repo.CheckAndClosePreviousYear(ctx, now)
	if err != nil {
		t.Fatalf("CheckAndClosePreviousYear (again): %v", err)
	}
	if again != nil {
		t.Errorf("expected no-op on already-closed year, got %+v", again)
	}
}

func TestCheckAndClosePreviousYearNoContributions(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	closed, err := repo.CheckAndClosePreviousYear(context.Background(), now)
	if err != nil {
		t.Fatalf("CheckAndClosePreviousYear: %v", err)
	}
	if closed == nil {
		t.Fatal("expected a close even with zero contributions")
	}
	if closed.Total.String() != "0" {
		t.Errorf("total = %s, want 0", closed.Total)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eglise.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustCreateMember(t, repo, "C001", "Alice", core.TypeCommuniant)
	repo.Close()

	// Re-opening an already-migrated database must succeed and keep data.
	repo2, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer repo2.Close()
	members, err := repo2.ListMembers(context.Background())
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("got %d members after reopen, want 1", len(members))
	}
}
