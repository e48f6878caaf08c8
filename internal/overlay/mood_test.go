package overlay

import (
	"context"
	"errors"
	"testing"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

type reportFunc func(ctx context.Context, symbol string) (model.NewsReport, error)

func (f reportFunc) Report(ctx context.Context, symbol string) (model.NewsReport, error) {
	return f(ctx, symbol)
}

func TestMoodPoller_AppliesReport(t *testing.T) {
	p := NewMoodPoller(reportFunc(func(_ context.Context, s string) (model.NewsReport, error) {
		return model.NewsReport{Symbol: s, Mood: model.MoodSummary{Mood: model.MoodBullish}}, nil
	}), StaticSymbol("MSFT"), 0)

	var updates int
	p.OnUpdate = func(model.NewsReport) { updates++ }

	if !p.Poll(context.Background()) {
		t.Fatal("Poll not applied")
	}
	rep, ok, err := p.Latest()
	if !ok || err != nil || rep.Symbol != "MSFT" {
		t.Fatalf("Latest = %+v %v %v", rep, ok, err)
	}
	if updates != 1 {
		t.Fatalf("updates = %d", updates)
	}
}

func TestMoodPoller_DiscardsFetchFinishedAfterDisable(t *testing.T) {
	var p *MoodPoller
	p = NewMoodPoller(reportFunc(func(_ context.Context, s string) (model.NewsReport, error) {
		p.Disable()
		return model.NewsReport{Symbol: s}, nil
	}), StaticSymbol("MSFT"), 0)

	if p.Poll(context.Background()) {
		t.Fatal("stale report applied")
	}
	if _, ok, _ := p.Latest(); ok {
		t.Fatal("Latest should be empty")
	}
}

func TestMoodPoller_DiscardsAcrossToggle(t *testing.T) {
	var p *MoodPoller
	p = NewMoodPoller(reportFunc(func(_ context.Context, s string) (model.NewsReport, error) {
		p.Disable()
		p.Enable()
		return model.NewsReport{Symbol: s}, nil
	}), StaticSymbol("MSFT"), 0)

	if p.Poll(context.Background()) {
		t.Fatal("report from previous generation applied")
	}
}

func TestMoodPoller_KeepsLastReportOnError(t *testing.T) {
	fail := false
	p := NewMoodPoller(reportFunc(func(_ context.Context, s string) (model.NewsReport, error) {
		if fail {
			return model.NewsReport{}, errors.New("upstream down")
		}
		return model.NewsReport{Symbol: s}, nil
	}), StaticSymbol("MSFT"), 0)

	p.Poll(context.Background())
	fail = true
	if p.Poll(context.Background()) {
		t.Fatal("failed poll reported as applied")
	}
	rep, ok, err := p.Latest()
	if !ok || rep.Symbol != "MSFT" || err == nil {
		t.Fatalf("Latest = %+v %v %v", rep, ok, err)
	}
}

func TestMoodPoller_DisabledSkips(t *testing.T) {
	called := false
	p := NewMoodPoller(reportFunc(func(context.Context, string) (model.NewsReport, error) {
		called = true
		return model.NewsReport{}, nil
	}), StaticSymbol("MSFT"), 0)
	p.Disable()
	if p.Poll(context.Background()) || called {
		t.Fatal("disabled poller fetched")
	}
}
