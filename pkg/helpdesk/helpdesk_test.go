package helpdesk_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/skphelp/pkg/adapters/memory"
	"github.com/aretw0/skphelp/pkg/auth"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/helpdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSeed(t *testing.T) *helpdesk.Seed {
	t.Helper()
	seed, err := helpdesk.LoadSeed()
	require.NoError(t, err)
	return seed
}

func TestLoadSeed(t *testing.T) {
	seed := loadSeed(t)

	assert.Len(t, seed.Users, 3)
	assert.Len(t, seed.FAQs, 5)
	assert.Len(t, seed.Tickets, 4)
	assert.Len(t, seed.Templates, 3)
	assert.NotEmpty(t, seed.IssueStats)
	assert.NotEmpty(t, seed.MonthlyStats)

	svc := auth.NewService(memory.NewUserStore(seed.Users...), auth.NewIssuer("s", time.Hour))
	profile, err := svc.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, profile.Role)

	assert.Equal(t, "2024-03-20", seed.Tickets[0].Date.Format("2006-01-02"))
	assert.Nil(t, seed.Tickets[0].Answer)
	require.NotNil(t, seed.Tickets[1].Answer)
}

func TestFAQService_Search(t *testing.T) {
	seed := loadSeed(t)
	svc := helpdesk.NewFAQService(memory.NewFAQStore(seed.FAQs...))
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		category string
		wantIDs  []string
	}{
		{"All In Store Order", "", domain.CategoryAll, []string{"1", "2", "3", "4", "5"}},
		{"Empty Category Means All", "", "", []string{"1", "2", "3", "4", "5"}},
		{"Category Filter", "", "Pengisian SKP", []string{"1", "5"}},
		{"Question Match Case Insensitive", "ppPK", "", []string{"5"}},
		{"Answer Match", "ctrl+f5", domain.CategoryAll, []string{"2"}},
		{"Query And Category", "atasan", "Penilaian", []string{"4"}},
		{"No Match", "gaji", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query, tt.category)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, f := range got {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFAQService_ViewRefreshesCachedSearch(t *testing.T) {
	store := memory.NewFAQStore(
		domain.FAQItem{ID: "a", Category: "Regulasi", Question: "A", Answer: "x", Views: 2},
		domain.FAQItem{ID: "b", Category: "Regulasi", Question: "B", Answer: "x", Views: 1},
	)
	svc := helpdesk.NewFAQService(store)
	ctx := context.Background()

	first, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first[1].Views)

	for range 2 {
		_, err := svc.View(ctx, "b")
		require.NoError(t, err)
	}

	again, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "b", again[1].ID)
	assert.Equal(t, 3, again[1].Views)

	_, err = svc.View(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// viewDuringList counts views after the inner store has taken its snapshot,
// so the listing it returns is already outdated.
type viewDuringList struct {
	*memory.FAQStore
	svc  *helpdesk.FAQService
	once sync.Once
}

func (s *viewDuringList) List(ctx context.Context) ([]domain.FAQItem, error) {
	items, err := s.FAQStore.List(ctx)
	s.once.Do(func() {
		for range 2 {
			_, _ = s.svc.View(ctx, "b")
		}
	})
	return items, err
}

func TestFAQService_ViewDuringSearchIsNotMaskedByCache(t *testing.T) {
	store := &viewDuringList{FAQStore: memory.NewFAQStore(
		domain.FAQItem{ID: "a", Category: "Regulasi", Question: "A", Answer: "x", Views: 10},
		domain.FAQItem{ID: "b", Category: "Regulasi", Question: "B", Answer: "x", Views: 9},
	)}
	svc := helpdesk.NewFAQService(store)
	store.svc = svc
	ctx := context.Background()

	stale, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 9, stale[1].Views)

	fresh, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "b", fresh[1].ID)
	assert.Equal(t, 11, fresh[1].Views)
}

func TestFAQService_NewEntryListedFirst(t *testing.T) {
	svc := helpdesk.NewFAQService(memory.NewFAQStore(loadSeed(t).FAQs...))
	ctx := context.Background()

	_, err := svc.Search(ctx, "", "")
	require.NoError(t, err)

	created, err := svc.Create(ctx, helpdesk.FAQInput{
		Category: "Masalah Teknis",
		Question: "Tombol kirim tidak aktif?",
		Answer:   "Lengkapi semua indikator terlebih dahulu.",
	})
	require.NoError(t, err)

	all, err := svc.Search(ctx, "", domain.CategoryAll)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, created.ID, all[0].ID)
	assert.Equal(t, "1", all[1].ID)
}

func TestFAQService_CRUD(t *testing.T) {
	svc := helpdesk.NewFAQService(memory.NewFAQStore(loadSeed(t).FAQs...))
	ctx := context.Background()

	created, err := svc.Create(ctx, helpdesk.FAQInput{
		Category: "Regulasi",
		Question: " Kapan batas pengisian SKP? ",
		Answer:   "Akhir Januari.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Zero(t, created.Views)
	assert.Equal(t, "Kapan batas pengisian SKP?", created.Question)

	regs, err := svc.Search(ctx, "", "Regulasi")
	require.NoError(t, err)
	require.Len(t, regs, 1)

	_, err = svc.View(ctx, created.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, helpdesk.FAQInput{
		Category: "Penilaian",
		Question: "Kapan batas penilaian?",
		Answer:   "Akhir Februari.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Views, "updates keep the view count")

	_, err = svc.Update(ctx, "missing", helpdesk.FAQInput{Category: "Penilaian", Question: "Q", Answer: "A"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestFAQService_Validation(t *testing.T) {
	svc := helpdesk.NewFAQService(memory.NewFAQStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		in    helpdesk.FAQInput
		field string
	}{
		{"Blank Question", helpdesk.FAQInput{Category: "Regulasi", Question: "  ", Answer: "A"}, "Question"},
		{"Missing Answer", helpdesk.FAQInput{Category: "Regulasi", Question: "Q"}, "Answer"},
		{"All Is Not A Category", helpdesk.FAQInput{Category: domain.CategoryAll, Question: "Q", Answer: "A"}, "Category"},
		{"Unknown Category", helpdesk.FAQInput{Category: "Gaji", Question: "Q", Answer: "A"}, "Category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			require.ErrorIs(t, err, helpdesk.ErrInvalidInput)

			var verr *helpdesk.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, "Pertanyaan dan Jawaban wajib diisi.", verr.Message)
		})
	}
}

func TestUserService(t *testing.T) {
	svc := helpdesk.NewUserService(memory.NewUserStore(loadSeed(t).Users...), nil)
	ctx := context.Background()

	profile, err := svc.Create(ctx, helpdesk.UserInput{
		NIP:       "199001012015011001",
		Name:      "Sri Lestari",
		Password:  "rahasia",
		Role:      domain.RoleASN,
		UnitKerja: "Dinas Kesehatan",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sri Lestari", profile.Name)

	t.Run("Duplicate NIP", func(t *testing.T) {
		_, err := svc.Create(ctx, helpdesk.UserInput{
			NIP: "admin", Name: "X", Password: "x", Role: domain.RoleAdmin, UnitKerja: "Y",
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateUser)
	})

	t.Run("All Fields Required", func(t *testing.T) {
		_, err := svc.Create(ctx, helpdesk.UserInput{NIP: "1", Name: "X", Role: domain.RoleASN})
		var verr *helpdesk.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Semua data wajib diisi.", verr.Message)
		assert.ElementsMatch(t, []string{"Password", "UnitKerja"}, verr.Fields)
	})

	t.Run("Unknown Role", func(t *testing.T) {
		_, err := svc.Create(ctx, helpdesk.UserInput{
			NIP: "2", Name: "X", Password: "x", Role: "root", UnitKerja: "Y",
		})
		assert.ErrorIs(t, err, helpdesk.ErrInvalidInput)
	})

	t.Run("Search", func(t *testing.T) {
		byUnit, err := svc.Search(ctx, "kesehatan")
		require.NoError(t, err)
		require.Len(t, byUnit, 1)
		assert.Equal(t, "199001012015011001", byUnit[0].NIP)

		byNIP, err := svc.Search(ctx, "19850101")
		require.NoError(t, err)
		require.Len(t, byNIP, 1)
		assert.Equal(t, "Ahmad Yani", byNIP[0].Name)

		all, err := svc.Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "199001012015011001"))
		assert.ErrorIs(t, svc.Delete(ctx, "199001012015011001"), domain.ErrNotFound)
	})
}

type recordingNotifier struct {
	mu        sync.Mutex
	submitted []string
	responded []string
}

func (n *recordingNotifier) TicketSubmitted(_ context.Context, t domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, t.ID)
}

func (n *recordingNotifier) TicketResponded(_ context.Context, t domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responded = append(n.responded, t.ID)
}

func TestTicketService(t *testing.T) {
	seed := loadSeed(t)
	notifier := &recordingNotifier{}
	clock := time.Date(2024, 3, 21, 9, 0, 0, 0, time.UTC)
	svc := helpdesk.NewTicketService(
		memory.NewTicketStore(seed.Tickets...),
		helpdesk.WithNotifier(notifier),
		helpdesk.WithTicketClock(func() time.Time { return clock }),
		helpdesk.WithReferenceStats(seed.IssueStats, seed.MonthlyStats),
	)
	ctx := context.Background()
	user := domain.UserProfile{NIP: "198501012010011001", Name: "Ahmad Yani", Role: domain.RoleASN, UnitKerja: "Dinas Kominfo"}

	ticket, err := svc.Submit(ctx, user, helpdesk.TicketInput{Category: "Teknis", Question: "Tidak bisa login."})
	require.NoError(t, err)
	assert.Equal(t, "T-2024-005", ticket.ID)
	assert.Equal(t, domain.TicketPending, ticket.Status)
	assert.Equal(t, "Dinas Kominfo", ticket.Unit)
	assert.Equal(t, clock, ticket.Date)
	assert.Nil(t, ticket.Answer)

	clock = time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	next, err := svc.Submit(ctx, user, helpdesk.TicketInput{Unit: "Sekretariat", Category: "Lainnya", Question: "Q"})
	require.NoError(t, err)
	assert.Equal(t, "T-2025-001", next.ID)
	assert.Equal(t, "Sekretariat", next.Unit)

	_, err = svc.Submit(ctx, user, helpdesk.TicketInput{Category: "Teknis"})
	assert.ErrorIs(t, err, helpdesk.ErrInvalidInput)

	mine, err := svc.Mine(ctx, user.NIP)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "T-2025-001", mine[0].ID)

	resolved, err := svc.Respond(ctx, ticket.ID, helpdesk.ResponseInput{Answer: "Sudah direset.", Status: domain.TicketResolved})
	require.NoError(t, err)
	require.NotNil(t, resolved.Answer)
	assert.Equal(t, "Sudah direset.", *resolved.Answer)
	assert.Equal(t, domain.TicketResolved, resolved.Status)

	_, err = svc.Respond(ctx, "T-1999-001", helpdesk.ResponseInput{Answer: "x", Status: domain.TicketResolved})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Respond(ctx, ticket.ID, helpdesk.ResponseInput{Answer: "x", Status: "closed"})
	assert.ErrorIs(t, err, helpdesk.ErrInvalidInput)

	assert.Equal(t, []string{"T-2024-005", "T-2025-001"}, notifier.submitted)
	assert.Equal(t, []string{"T-2024-005"}, notifier.responded)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[domain.TicketPending])
	assert.Equal(t, 1, stats.ByStatus[domain.TicketProcessing])
	assert.Equal(t, 3, stats.ByStatus[domain.TicketResolved])
	assert.Equal(t, seed.MonthlyStats, stats.MonthlyStats)
	assert.Len(t, stats.ByCategory, 6)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestTemplateCatalog(t *testing.T) {
	catalog := helpdesk.NewTemplateCatalog(loadSeed(t).Templates)
	all := catalog.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Reset Password", all[1].Title)

	all[0].Title = "changed"
	assert.Equal(t, "Jabatan Belum Sesuai", catalog.All()[0].Title)
}

func TestTicketService_SanitizesInput(t *testing.T) {
	svc := helpdesk.NewTicketService(memory.NewTicketStore())
	ctx := context.Background()
	user := domain.UserProfile{NIP: "199001012015031002", Name: "Siti", Role: domain.RoleASN, UnitKerja: "BKPSDM"}

	ticket, err := svc.Submit(ctx, user, helpdesk.TicketInput{
		Category: "Teknis",
		Question: "Tombol simpan\x1b[31m error\x00.\nSudah dicoba ulang.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tombol simpan[31m error.\nSudah dicoba ulang.", ticket.Question)

	_, err = svc.Submit(ctx, user, helpdesk.TicketInput{Category: "Teknis", Question: "\x07\x1b"})
	assert.ErrorIs(t, err, helpdesk.ErrInvalidInput, "control characters alone leave a blank question")

	_, err = svc.Submit(ctx, user, helpdesk.TicketInput{Category: "Teknis", Question: strings.Repeat("a", helpdesk.MaxTextSize+1)})
	var verr *helpdesk.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Question"}, verr.Fields)

	_, err = svc.Submit(ctx, user, helpdesk.TicketInput{Category: "Teknis", Question: "bad \xff utf8"})
	assert.ErrorIs(t, err, helpdesk.ErrInvalidInput)
}
