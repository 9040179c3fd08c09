package odds

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func quote(bookmaker string, retrievedAt time.Time, home, draw, away string) domain.Odds {
	return domain.Odds{
		MatchID:     1,
		Bookmaker:   bookmaker,
		HomeWin:     dec(home),
		Draw:        dec(draw),
		AwayWin:     dec(away),
		RetrievedAt: retrievedAt,
	}
}

func TestFoldBestEmpty(t *testing.T) {
	best := FoldBest(1, nil)
	if best.HasData {
		t.Error("HasData = true for empty quote set")
	}
	if best.MatchID != 1 {
		t.Errorf("MatchID = %d, want 1", best.MatchID)
	}
}

func TestFoldBestPicksMaximumPerMarket(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	quotes := []domain.Odds{
		quote("bet365", t0, "2.10", "3.40", "3.50"),
		quote("williamhill", t0.Add(time.Hour), "2.25", "3.30", "3.60"),
		quote("unibet", t0.Add(2*time.Hour), "2.00", "3.55", "3.45"),
	}
	best := FoldBest(1, quotes)
	if !best.HasData {
		t.Fatal("HasData = false")
	}
	if best.HomeWin.Bookmaker != "williamhill" || !best.HomeWin.Price.Equal(dec("2.25")) {
		t.Errorf("HomeWin = %s @ %s, want williamhill @ 2.25", best.HomeWin.Bookmaker, best.HomeWin.Price)
	}
	if best.Draw.Bookmaker != "unibet" || !best.Draw.Price.Equal(dec("3.55")) {
		t.Errorf("Draw = %s @ %s, want unibet @ 3.55", best.Draw.Bookmaker, best.Draw.Price)
	}
	if best.AwayWin.Bookmaker != "williamhill" || !best.AwayWin.Price.Equal(dec("3.60")) {
		t.Errorf("AwayWin = %s @ %s, want williamhill @ 3.60", best.AwayWin.Bookmaker, best.AwayWin.Price)
	}
}

func TestFoldBestTieBreaksOnRetrievalTime(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	quotes := []domain.Odds{
		quote("williamhill", t0.Add(time.Hour), "2.20", "3.40", "3.50"),
		quote("bet365", t0, "2.20", "3.40", "3.50"),
	}
	best := FoldBest(1, quotes)
	if best.HomeWin.Bookmaker != "bet365" {
		t.Errorf("HomeWin bookmaker = %s, want bet365 (earlier retrieval)", best.HomeWin.Bookmaker)
	}
	if !best.HomeWin.RetrievedAt.Equal(t0) {
		t.Errorf("HomeWin RetrievedAt = %v, want %v", best.HomeWin.RetrievedAt, t0)
	}
}

func TestFoldBestTieBreaksOnBookmakerName(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	quotes := []domain.Odds{
		quote("williamhill", t0, "2.20", "3.40", "3.50"),
		quote("bet365", t0, "2.20", "3.40", "3.50"),
	}
	best := FoldBest(1, quotes)
	if best.Draw.Bookmaker != "bet365" {
		t.Errorf("Draw bookmaker = %s, want bet365 (lexicographic tie-break)", best.Draw.Bookmaker)
	}
}

func TestFoldBestDeterministicAcrossInsertionOrder(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := quote("bet365", t0, "2.20", "3.40", "3.50")
	b := quote("williamhill", t0, "2.20", "3.45", "3.50")
	c := quote("unibet", t0.Add(time.Hour), "2.20", "3.45", "3.60")

	forward := FoldBest(1, []domain.Odds{a, b, c})
	reversed := FoldBest(1, []domain.Odds{c, b, a})
	for _, pair := range []struct {
		market   string
		fwd, rev Quote
	}{
		{"home_win", forward.HomeWin, reversed.HomeWin},
		{"draw", forward.Draw, reversed.Draw},
		{"away_win", forward.AwayWin, reversed.AwayWin},
	} {
		if !pair.fwd.Price.Equal(pair.rev.Price) || pair.fwd.Bookmaker != pair.rev.Bookmaker {
			t.Errorf("%s depends on insertion order: %+v vs %+v", pair.market, pair.fwd, pair.rev)
		}
	}
}

func TestFoldLatestKeepsNewestPerBookmaker(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	quotes := []domain.Odds{
		quote("bet365", t0, "2.10", "3.40", "3.50"),
		quote("bet365", t0.Add(2*time.Hour), "2.15", "3.35", "3.45"),
		quote("williamhill", t0.Add(time.Hour), "2.25", "3.30", "3.60"),
	}
	latest := FoldLatest(quotes)
	if len(latest) != 2 {
		t.Fatalf("len = %d, want 2", len(latest))
	}
	if latest[0].Bookmaker != "bet365" || latest[1].Bookmaker != "williamhill" {
		t.Errorf("order = %s, %s, want bet365, williamhill", latest[0].Bookmaker, latest[1].Bookmaker)
	}
	if !latest[0].HomeWin.Equal(dec("2.15")) {
		t.Errorf("bet365 HomeWin = %s, want the later quote's 2.15", latest[0].HomeWin)
	}
}

func TestFoldLatestEmpty(t *testing.T) {
	if got := FoldLatest(nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
