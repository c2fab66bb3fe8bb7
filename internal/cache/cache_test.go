package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"touchline/backend/internal/cache"
	"touchline/backend/internal/model"
)

func translation(articleID, lang, title string) model.Translation {
	return model.Translation{
		ArticleID:         articleID,
		Language:          lang,
		TranslationFields: model.TranslationFields{Title: title},
	}
}

func TestTranslationCache_GetSet(t *testing.T) {
	c := cache.NewTranslationCache()
	_, ok := c.Get("a1", "fr")
	require.False(t, ok)

	c.Set(translation("a1", "fr", "Bonjour"))
	c.Set(translation("a1", "es", "Hola"))

	got, ok := c.Get("a1", "fr")
	require.True(t, ok)
	require.Equal(t, "Bonjour", got.Title)
	require.Equal(t, 2, c.Len())

	_, ok = c.Get("a2", "fr")
	require.False(t, ok)
}

func TestSessions_IsolatedPerSession(t *testing.T) {
	s := cache.NewSessions(time.Minute, 0)
	s.Get("one").Set(translation("a1", "fr", "x"))

	_, ok := s.Get("two").Get("a1", "fr")
	require.False(t, ok)
	_, ok = s.Get("one").Get("a1", "fr")
	require.True(t, ok)
	require.Equal(t, 2, s.Len())
}

func TestSessions_IdleExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := cache.NewSessions(30*time.Minute, 0)
	s.SetClockForTest(func() time.Time { return now })

	s.Get("one").Set(translation("a1", "fr", "x"))
	s.Get("two")

	now = now.Add(20 * time.Minute)
	s.Get("two")

	now = now.Add(15 * time.Minute)
	require.Equal(t, 1, s.Sweep())
	require.Equal(t, 1, s.Len())

	_, ok := s.Get("one").Get("a1", "fr")
	require.False(t, ok)
}

func TestSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	s := cache.NewSessions(time.Hour, 2)
	s.Get("one").Set(translation("a1", "fr", "x"))
	s.Get("two")
	s.Get("one")
	s.Get("three")

	require.Equal(t, 2, s.Len())
	_, ok := s.Get("one").Get("a1", "fr")
	require.True(t, ok, "recently used session survives")

	for i := 0; i < 100; i++ {
		s.Get(fmt.Sprintf("drive-by-%d", i))
	}
	require.Equal(t, 2, s.Len())
}
