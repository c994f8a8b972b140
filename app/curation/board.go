package curation

import (
	"errors"
	"sync"
)

var (
	ErrStaleRequest = errors.New("stale request")
	ErrUnknownPanel = errors.New("unknown panel")
)

// Ticket identifies one fetch started on a Board.
type Ticket struct {
	ID       uint64
	Identity string
}

// PanelView is the visible window of one panel.
type PanelView struct {
	Panel    Panel        `json:"panel"`
	Articles []Article    `json:"articles"`
	Total    int          `json:"total"`
	PageSize int          `json:"pageSize"`
	HasMore  bool         `json:"hasMore"`
	Tiers    map[Tier]int `json:"tiers"`
}

type BoardView struct {
	Identity string      `json:"identity"`
	Panels   []PanelView `json:"panels"`
}

// Board is the per-client rendering state: the last committed panels and a
// pager for each. Fetches may overlap; only the latest ticket can commit.
type Board struct {
	mu sync.Mutex

	latest   uint64
	identity string
	panels   Panels
	pagers   map[Panel]*Pager
}

func NewBoard(initialPageSize, maxPageSize int) *Board {
	pagers := make(map[Panel]*Pager, len(PanelOrder))
	for _, p := range PanelOrder {
		pagers[p] = NewPager(initialPageSize, maxPageSize)
	}
	return &Board{pagers: pagers}
}

// Begin registers a new fetch and supersedes every earlier ticket.
func (b *Board) Begin(identity string) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest++
	return Ticket{ID: b.latest, Identity: identity}
}

// Commit stores the result of a fetch. Pagers reset when the identity changes
// so a long window is not carried over to a different batch.
func (b *Board) Commit(t Ticket, panels Panels) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.ID != b.latest {
		return ErrStaleRequest
	}

	if t.Identity != b.identity {
		for _, p := range b.pagers {
			p.Reset()
		}
		b.identity = t.Identity
	}
	b.panels = panels
	return nil
}

// LoadMore grows the window of one panel and returns its new view.
func (b *Board) LoadMore(panel Panel) (PanelView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pager, ok := b.pagers[panel]
	if !ok {
		return PanelView{}, ErrUnknownPanel
	}
	pager.IncreasePageSize()
	return b.viewLocked(panel), nil
}

func (b *Board) View() BoardView {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := BoardView{
		Identity: b.identity,
		Panels:   make([]PanelView, 0, len(PanelOrder)),
	}
	for _, p := range PanelOrder {
		view.Panels = append(view.Panels, b.viewLocked(p))
	}
	return view
}

func (b *Board) viewLocked(panel Panel) PanelView {
	pager := b.pagers[panel]
	sel := b.panels.Get(panel)

	tiers := make(map[Tier]int, len(sel.Tiers))
	for k, v := range sel.Tiers {
		tiers[k] = v
	}

	visible := Visible(pager, sel.Articles)
	articles := make([]Article, len(visible))
	copy(articles, visible)

	return PanelView{
		Panel:    panel,
		Articles: articles,
		Total:    len(sel.Articles),
		PageSize: pager.PageSize,
		HasMore:  HasMore(pager, sel.Articles),
		Tiers:    tiers,
	}
}
