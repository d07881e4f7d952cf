package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	"github.com/diagnosis/lifesave-bloodbank/internal/repo/memory"
	"github.com/diagnosis/lifesave-bloodbank/pkg/config"
	"github.com/diagnosis/lifesave-bloodbank/pkg/events"
	"github.com/diagnosis/lifesave-bloodbank/pkg/metrics"
)

// testParams keeps hashing fast in tests.
var testParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type fixture struct {
	accounts *memory.AccountsRepo
	donors   *memory.DonorsRepo
	bus      *events.LocalEventBus
	metrics  *metrics.Metrics

	auth   *authService
	donor  *donorService
	staff  *staffService
	export *exportService

	admin *domain.Principal
	clerk *domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	accounts := memory.NewAccountsRepo()
	donors := memory.NewDonorsRepo(accounts)
	bus := events.NewLocalEventBus()
	t.Cleanup(func() { _ = bus.Close() })
	m := metrics.New()

	authCfg := config.AuthConfig{
		JWTSecret:            "test-secret",
		TokenTTL:             time.Hour,
		DefaultStaffPassword: "staff123",
	}
	donorCfg := config.DonorConfig{MaxUploadBytes: 5 << 20, BloodUnitsPerDonor: 2}

	f := &fixture{accounts: accounts, donors: donors, bus: bus, metrics: m}
	f.auth = NewAuthService(accounts, authCfg).(*authService)
	f.auth.params = testParams
	f.donor = NewDonorService(donors, accounts, bus, m, donorCfg).(*donorService)
	f.staff = NewStaffService(accounts, bus, authCfg).(*staffService)
	f.staff.params = testParams
	f.export = NewExportService(donors, accounts, config.ExportConfig{DateLayout: "1/2/2006"}).(*exportService)
	f.export.loc = time.UTC

	require.NoError(t, f.auth.SeedDefaults(ctx))

	admin, err := accounts.FindByEmail(ctx, SeedAdminEmail)
	require.NoError(t, err)
	clerk, err := accounts.FindByEmail(ctx, SeedStaffEmail)
	require.NoError(t, err)
	f.admin = &domain.Principal{AccountID: admin.ID, Name: admin.Name, Email: admin.Email, Role: admin.Role}
	f.clerk = &domain.Principal{AccountID: clerk.ID, Name: clerk.Name, Email: clerk.Email, Role: clerk.Role}
	return f
}

func registration(name, group string) domain.DonorRegistration {
	return domain.DonorRegistration{
		FullName:   name,
		Phone:      "9990001111",
		Gmail:      "donor@example.org",
		BloodGroup: group,
		Age:        "30",
		Sex:        "female",
		Address: domain.Address{
			Street: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001", Country: "India",
		},
		Photo:        &domain.Upload{Filename: "p.png", ContentType: "image/png", Data: []byte("png")},
		GovernmentID: &domain.Upload{Filename: "id.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	}
}

func (f *fixture) register(t *testing.T, name, group string) *domain.Donor {
	t.Helper()
	d, err := f.donor.Register(context.Background(), registration(name, group))
	require.NoError(t, err)
	return d
}
