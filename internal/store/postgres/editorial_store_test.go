package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenceeditorial/auditengine/internal/models"
)

func TestEditorialStoreSiteProfileCreateAndLatest(t *testing.T) {
	db := setupTestDB(t)
	store := NewEditorialStore(db)
	ctx := context.Background()
	domain := "editorial-store-" + time.Now().UTC().Format("150405.000000") + ".example.com"

	older := &models.SiteProfile{
		Domain:        domain,
		AnalysisDate:  time.Now().UTC().Add(-24 * time.Hour),
		LanguageLevel: models.LanguageSimple,
		PagesAnalyzed: 3,
	}
	require.NoError(t, store.CreateSiteProfile(ctx, older))
	assert.NotZero(t, older.ID)

	newer := &models.SiteProfile{
		Domain:        domain,
		AnalysisDate:  time.Now().UTC(),
		LanguageLevel: models.LanguageAdvanced,
		PagesAnalyzed: 7,
	}
	require.NoError(t, store.CreateSiteProfile(ctx, newer))

	latest, err := store.LatestSiteProfile(ctx, domain)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.LanguageAdvanced, latest.LanguageLevel)

	history, err := store.SiteProfileHistory(ctx, domain)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestEditorialStoreCompetitorUpsert(t *testing.T) {
	db := setupTestDB(t)
	store := NewEditorialStore(db)
	ctx := context.Background()
	client := "competitor-upsert-client-" + time.Now().UTC().Format("150405.000000") + ".example.com"
	competitor := "rival.example.com"

	c := &models.CompetitorDomain{ClientDomain: client, Domain: competitor}
	require.NoError(t, store.UpsertCompetitorDomain(ctx, c))
	assert.False(t, c.Validated)

	c.Validated = true
	c.Manual = true
	require.NoError(t, store.UpsertCompetitorDomain(ctx, c))

	fetched, err := store.GetCompetitor(ctx, client, competitor)
	require.NoError(t, err)
	assert.True(t, fetched.Validated)
	assert.True(t, fetched.Manual)

	list, err := store.ListCompetitors(ctx, client)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEditorialStoreCompetitorExcludedIsHiddenFromList(t *testing.T) {
	db := setupTestDB(t)
	store := NewEditorialStore(db)
	ctx := context.Background()
	client := "competitor-excluded-client-" + time.Now().UTC().Format("150405.000000") + ".example.com"

	c := &models.CompetitorDomain{ClientDomain: client, Domain: "excluded.example.com", Excluded: true}
	require.NoError(t, store.UpsertCompetitorDomain(ctx, c))

	list, err := store.ListCompetitors(ctx, client)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEditorialStoreArticleCreateAndCount(t *testing.T) {
	db := setupTestDB(t)
	store := NewEditorialStore(db)
	ctx := context.Background()
	domain := "articles-" + time.Now().UTC().Format("150405.000000") + ".example.com"

	for i := 0; i < 3; i++ {
		a := &models.Article{
			Domain:   domain,
			IsClient: true,
			URL:      "https://" + domain + "/post-" + time.Now().UTC().Format("150405.000000000"),
			URLHash:  "hash-" + time.Now().UTC().Format("150405.000000000"),
			Title:    "post",
		}
		require.NoError(t, store.CreateArticle(ctx, a))
	}

	n, err := store.CountArticlesByDomain(ctx, domain)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	articles, err := store.ArticlesByDomain(ctx, domain)
	require.NoError(t, err)
	assert.Len(t, articles, 3)

	total, err := store.CountArticlesByDomains(ctx, []string{domain, "nonexistent.example.com"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestEditorialStoreArticleDuplicateURLHashIsIgnored(t *testing.T) {
	db := setupTestDB(t)
	store := NewEditorialStore(db)
	ctx := context.Background()
	domain := "dedup-" + time.Now().UTC().Format("150405.000000") + ".example.com"
	hash := "same-hash"

	first := &models.Article{Domain: domain, URL: "https://" + domain + "/a", URLHash: hash, Title: "a"}
	require.NoError(t, store.CreateArticle(ctx, first))

	second := &models.Article{Domain: domain, URL: "https://" + domain + "/b", URLHash: hash, Title: "b"}
	require.NoError(t, store.CreateArticle(ctx, second))

	n, err := store.CountArticlesByDomain(ctx, domain)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
