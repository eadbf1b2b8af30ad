package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/figure-tracker/internal/config"
	"github.com/figure-tracker/internal/models"
	"github.com/figure-tracker/internal/types"
)

func testClickHouseConfig() *config.ClickHouseConfig {
	return &config.ClickHouseConfig{
		Host:     "localhost",
		Port:     "9000",
		Database: "figure_tracker",
		User:     "default",
		Password: "",
	}
}

func setupStatementRepo(t *testing.T) *StatementRepository {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewClickHouseDB(testClickHouseConfig())
	if err != nil {
		t.Skipf("Skipping test - ClickHouse not available: %v", err)
		return nil
	}
	t.Cleanup(func() { db.Close() })

	ctx := testContext(t)
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	return NewStatementRepository(db)
}

func testStatement(t *testing.T, figureID string) *models.Statement {
	t.Helper()
	return &models.Statement{
		FigureID:      figureID,
		FigureName:    "테스트의원",
		Title:         "본회의 발언",
		Content:       "발언 내용",
		StatementDate: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		Source:        "국회방송국",
		OriginalURL:   fmt.Sprintf("https://test.example/stmt/%d", time.Now().UnixNano()),
		Type:          types.StatementAssemblySpeech,
		IngestedAt:    time.Now().UTC(),
	}
}

func TestStatementRepository_InsertAndExists(t *testing.T) {
	repo := setupStatementRepo(t)
	ctx := testContext(t)

	stmt := testStatement(t, "TESTFIG_1")
	if err := repo.Insert(ctx, stmt); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	exists, err := repo.ExistsByOriginalURL(ctx, stmt.OriginalURL)
	if err != nil {
		t.Fatalf("ExistsByOriginalURL() error = %v", err)
	}
	if !exists {
		t.Error("inserted statement not found by its url")
	}

	exists, err = repo.ExistsByOriginalURL(ctx, "https://test.example/absent")
	if err != nil {
		t.Fatalf("ExistsByOriginalURL() error = %v", err)
	}
	if exists {
		t.Error("unknown url reported as archived")
	}
}

func TestStatementRepository_BatchInsert(t *testing.T) {
	repo := setupStatementRepo(t)
	ctx := testContext(t)

	figureID := fmt.Sprintf("TESTFIG_%d", time.Now().UnixNano())
	batch := []*models.Statement{
		testStatement(t, figureID),
		testStatement(t, figureID),
		testStatement(t, figureID),
	}

	if err := repo.BatchInsert(ctx, batch); err != nil {
		t.Fatalf("BatchInsert() error = %v", err)
	}

	count, err := repo.CountByFigure(ctx, figureID)
	if err != nil {
		t.Fatalf("CountByFigure() error = %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestStatementRepository_BatchInsert_Validation(t *testing.T) {
	repo := setupStatementRepo(t)
	ctx := testContext(t)

	if err := repo.BatchInsert(ctx, nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}

	bad := testStatement(t, "TESTFIG_1")
	bad.OriginalURL = " "
	if err := repo.BatchInsert(ctx, []*models.Statement{bad}); err == nil {
		t.Error("expected validation error for blank url")
	}
}

func TestStatementRepository_ListByFigure(t *testing.T) {
	repo := setupStatementRepo(t)
	ctx := testContext(t)

	figureID := fmt.Sprintf("TESTFIG_%d", time.Now().UnixNano())
	older := testStatement(t, figureID)
	older.StatementDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := testStatement(t, figureID)
	newer.StatementDate = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	if err := repo.BatchInsert(ctx, []*models.Statement{older, newer}); err != nil {
		t.Fatalf("BatchInsert() error = %v", err)
	}

	statements, err := repo.ListByFigure(ctx, figureID, 10)
	if err != nil {
		t.Fatalf("ListByFigure() error = %v", err)
	}
	if len(statements) != 2 {
		t.Fatalf("len(statements) = %d, want 2", len(statements))
	}
	if statements[0].OriginalURL != newer.OriginalURL {
		t.Error("statements not ordered newest first")
	}

	limited, err := repo.ListByFigure(ctx, figureID, 1)
	if err != nil {
		t.Fatalf("ListByFigure() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}

	if _, err := repo.ListByFigure(ctx, " ", 10); err == nil {
		t.Error("expected validation error for blank figure id")
	}
}
