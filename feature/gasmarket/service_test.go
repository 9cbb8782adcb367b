package gasmarket

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gas-market/core/database"
	"gas-market/core/reconcile"
	"gas-market/core/storage/mocks"
	"gas-market/core/validation"
	"gas-market/feature/gasmarket/models"
	"gas-market/feature/gasmarket/parser"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	day = models.NewDate(2025, time.September, 24)
	now = time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC)
)

const sampleUpload = "DATA;PLANILHA;ABA;PRODUTO;UNIDADE;VALOR\n" +
	"24/09/2025;Precos;Nordeste;GLP;ton;10,5\n" +
	"24/09/2025;Precos;Nordeste;GN;m3;2.25\n"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &models.Record{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func testOptions() Options {
	return Options{
		Parser:   parser.DefaultConfig(),
		Strategy: reconcile.TouchThenAppend,
		MaxBytes: 1024,
		Clock:    reconcile.FixedClock{T: now},
		Bucket:   "test-bucket",
	}
}

func setupService(t *testing.T, opts Options) *Service {
	t.Helper()
	return NewService(setupDB(t), zap.NewNop(), opts)
}

func candidate(product string, value float64) models.Candidate {
	return models.Candidate{
		Date:        day,
		Spreadsheet: "Precos",
		Sheet:       "Nordeste",
		Product:     product,
		Unit:        "ton",
		Value:       value,
	}
}

func TestService_CreateValidates(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	_, err := svc.Create(ctx, models.Candidate{Date: day, Spreadsheet: "P", Sheet: " ", Product: "GLP", Unit: "ton"})
	require.Error(t, err)
	assert.True(t, validation.Is(err, validation.KindEmptyRequiredField))

	rec, err := svc.Create(ctx, candidate(" GLP ", 3))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "GLP", rec.Product)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestService_CreateBatchSupersedesGroup(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	out, err := svc.CreateBatch(ctx, []models.Candidate{candidate("GLP", 1), candidate("GN", 2)})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Processed())
	assert.Zero(t, out.Touched)

	out, err = svc.CreateBatch(ctx, []models.Candidate{candidate("GLP", 5)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Touched)

	pending, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 5.0, pending[0].Value)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_CreateBatchEmpty(t *testing.T) {
	svc := setupService(t, testOptions())

	_, err := svc.CreateBatch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, validation.Is(err, validation.KindEmptyInput))
}

func TestService_Merge(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, []models.Candidate{candidate("GLP", 1)})
	require.NoError(t, err)

	out, err := svc.Merge(ctx, []models.Candidate{candidate("glp", 7), candidate("GN", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Created)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 7.0, all[0].Value)
	require.NotNil(t, all[0].UpdatedAt)
}

func TestService_Upload(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	res, err := svc.Upload(ctx, "precos.txt", []byte(sampleUpload), "")
	require.NoError(t, err)
	assert.Equal(t, "precos.txt", res.File)
	assert.Equal(t, parser.FormatTabular, res.Format)
	assert.Equal(t, ";", res.Delimiter)
	assert.Equal(t, reconcile.TouchThenAppend, res.Strategy)
	assert.Equal(t, 2, res.Outcome.Processed())

	records, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 10.5, records[0].Value)
	assert.Equal(t, day, records[0].Date)

	res, err = svc.Upload(ctx, "precos.txt", []byte(sampleUpload), "match-and-merge")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Outcome.Updated)
	assert.Zero(t, res.Outcome.Created)
}

func TestService_UploadRejects(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	tests := []struct {
		name     string
		file     string
		payload  string
		strategy string
		kind     validation.Kind
	}{
		{"extension", "precos.csv", sampleUpload, "", validation.KindInvalidFile},
		{"too large", "precos.txt", strings.Repeat("x", 2048), "", validation.KindInvalidFile},
		{"strategy", "precos.txt", sampleUpload, "replace", validation.KindInvalidParameter},
		{"empty", "precos.txt", "", "", validation.KindEmptyInput},
		{"missing column", "precos.txt", "DATA;PLANILHA\n2025-09-24;P\n", "", validation.KindMissingColumns},
		{"bad row", "precos.txt", "DATA;PLANILHA;ABA;PRODUTO;UNIDADE;VALOR\n2025-09-24;P;A;GLP;ton;1\nontem;P;A;GN;ton;2\n", "", validation.KindInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.file, []byte(tt.payload), tt.strategy)
			require.Error(t, err)
			assert.True(t, validation.Is(err, tt.kind), err.Error())
		})
	}

	records, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_UploadArchives(t *testing.T) {
	client := new(mocks.Client)
	opts := testOptions()
	opts.Storage = client
	svc := setupService(t, opts)

	client.On("PutObject", mock.Anything, "test-bucket",
		mock.MatchedBy(func(name string) bool {
			return strings.HasPrefix(name, "uploads/2025-09-30/") && strings.HasSuffix(name, "-precos.txt")
		}),
		mock.Anything, int64(len(sampleUpload)), mock.Anything,
	).Return(minio.UploadInfo{}, nil).Once()

	_, err := svc.Upload(context.Background(), "precos.txt", []byte(sampleUpload), "")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestService_UploadArchiveFailureIsIgnored(t *testing.T) {
	client := new(mocks.Client)
	opts := testOptions()
	opts.Storage = client
	svc := setupService(t, opts)

	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))

	res, err := svc.Upload(context.Background(), "precos.txt", []byte(sampleUpload), "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Outcome.Processed())
}

func TestService_Preview(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	p, err := svc.Preview(ctx, "precos.txt", []byte(sampleUpload), "")
	require.NoError(t, err)
	assert.True(t, p.Valid)
	assert.Empty(t, p.Errors)
	require.NotNil(t, p.Plan)
	assert.Equal(t, 2, p.Plan.Summary.Records)
	assert.Equal(t, 1, p.Plan.Summary.TouchActions)

	records, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, records)

	bad := "DATA;PLANILHA;ABA;PRODUTO;UNIDADE;VALOR\n2025-09-24;P;A;GLP;ton;abc\n2025-09-24;P;A;GN;ton;1\n"
	p, err = svc.Preview(ctx, "bad.txt", []byte(bad), "")
	require.NoError(t, err)
	assert.False(t, p.Valid)
	assert.Nil(t, p.Plan)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, 2, p.Errors[0].Row)
	assert.Equal(t, "VAL002", p.Errors[0].Code)
	assert.Len(t, p.Records, 1)
}

func TestService_PreviewDuplicateMerge(t *testing.T) {
	svc := setupService(t, testOptions())

	dup := "DATA;PLANILHA;ABA;PRODUTO;UNIDADE;VALOR\n2025-09-24;P;A;GLP;ton;1\n2025-09-24;p;a;glp;ton;2\n"
	p, err := svc.Preview(context.Background(), "dup.txt", []byte(dup), "match_and_merge")
	require.NoError(t, err)
	assert.False(t, p.Valid)
	require.NotEmpty(t, p.Errors)
	assert.Equal(t, validation.KindDuplicateKey, p.Errors[0].Kind)
}

func TestService_Export(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, []models.Candidate{candidate("GLP", 1)})
	require.NoError(t, err)

	data, name, err := svc.Export(ctx, 9, 2025)
	require.NoError(t, err)
	assert.Equal(t, "mercado_gas_9_2025.xlsx", name)
	assert.NotEmpty(t, data)

	_, _, err = svc.Export(ctx, 8, 2025)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ExportValidatesPeriod(t *testing.T) {
	svc := setupService(t, testOptions())

	for _, p := range []struct{ month, year int }{{0, 2025}, {13, 2025}, {9, 1999}, {9, 2026}} {
		_, _, err := svc.Export(context.Background(), p.month, p.year)
		require.Error(t, err)
		assert.True(t, validation.Is(err, validation.KindInvalidParameter))
	}
}

func TestService_ExportConcurrent(t *testing.T) {
	svc := setupService(t, testOptions())
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, []models.Candidate{candidate("GLP", 1), candidate("GN", 2)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = svc.Export(ctx, 9, 2025)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.NotEmpty(t, results[i])
	}
}

func TestService_ExportOutlivesCanceledCaller(t *testing.T) {
	client := new(mocks.Client)
	opts := testOptions()
	opts.Storage = client
	svc := setupService(t, opts)

	_, err := svc.CreateBatch(context.Background(), []models.Candidate{candidate("GLP", 1)})
	require.NoError(t, err)

	client.On("PutObject",
		mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }),
		"test-bucket", "exports/mercado_gas_9_2025.xlsx",
		mock.Anything, mock.Anything, mock.Anything,
	).Return(minio.UploadInfo{}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, name, err := svc.Export(ctx, 9, 2025)
	require.NoError(t, err)
	assert.Equal(t, "mercado_gas_9_2025.xlsx", name)
	assert.NotEmpty(t, data)
	client.AssertExpectations(t)
}
