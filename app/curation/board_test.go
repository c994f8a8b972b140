package curation

import (
	"errors"
	"sync"
	"testing"
)

func boardPanels(n int) Panels {
	var sel Selection
	sel.Panel = PanelSector
	sel.Tiers = map[Tier]int{TierRanked: n}
	for i := 0; i < n; i++ {
		sel.Articles = append(sel.Articles, newsArticle(i, "A"))
	}
	return Panels{Sector: sel}
}

func TestBoardStaleCommit(t *testing.T) {
	b := NewBoard(10, 50)

	first := b.Begin("a@example.com")
	second := b.Begin("b@example.com")

	if err := b.Commit(second, boardPanels(3)); err != nil {
		t.Fatalf("Expected latest ticket to commit, got: %v", err)
	}
	if err := b.Commit(first, boardPanels(7)); !errors.Is(err, ErrStaleRequest) {
		t.Errorf("Expected ErrStaleRequest, got: %v", err)
	}

	view := b.View()
	if view.Identity != "b@example.com" {
		t.Errorf("Expected identity of latest ticket, got %q", view.Identity)
	}
	if view.Panels[0].Total != 3 {
		t.Errorf("Expected stale result discarded, got %d articles", view.Panels[0].Total)
	}
}

func TestBoardLoadMoreAndReset(t *testing.T) {
	b := NewBoard(10, 50)

	ticket := b.Begin("default")
	if err := b.Commit(ticket, boardPanels(25)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	view, err := b.LoadMore(PanelSector)
	if err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	if len(view.Articles) != 20 || !view.HasMore {
		t.Errorf("Expected 20 visible with more, got %d hasMore=%v", len(view.Articles), view.HasMore)
	}

	// Same identity keeps the window.
	ticket = b.Begin("default")
	_ = b.Commit(ticket, boardPanels(25))
	if got := b.View().Panels[0].PageSize; got != 20 {
		t.Errorf("Expected window kept for same identity, got %d", got)
	}

	ticket = b.Begin("other")
	_ = b.Commit(ticket, boardPanels(25))
	if got := b.View().Panels[0].PageSize; got != 10 {
		t.Errorf("Expected window reset for new identity, got %d", got)
	}

	if _, err := b.LoadMore(Panel("bogus")); !errors.Is(err, ErrUnknownPanel) {
		t.Errorf("Expected ErrUnknownPanel, got: %v", err)
	}
}

func TestBoardConcurrentAccess(t *testing.T) {
	b := NewBoard(10, 500)
	if err := b.Commit(b.Begin("same"), boardPanels(5)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := b.Begin("same")
			_ = b.Commit(ticket, boardPanels(5))
			_, _ = b.LoadMore(PanelSocial)
			_ = b.View()
		}()
	}
	wg.Wait()

	if got := b.View().Panels[2].PageSize; got != 210 {
		t.Errorf("Expected 20 increments applied, got page size %d", got)
	}
}
