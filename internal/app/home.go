package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"learnhub/pkg/domain"
)

const featuredCount = 5

// HomeView is everything the home screen shows.
type HomeView struct {
	Courses   []domain.Course `json:"courses"`
	Featured  []domain.Course `json:"featured"`
	Profile   *domain.User    `json:"profile"`
	Interests string          `json:"interests,omitempty"`
	AI        []domain.Course `json:"aiRecommendations"`
	AIErr     string          `json:"aiError,omitempty"`
}

// Home loads the catalog, the profile and the saved interests together,
// then recommendations when interests are saved. Only a catalog failure
// fails the view: an unavailable profile leaves Profile nil, unreadable
// interests count as none saved, and a recommendation failure is reported
// in AIErr.
func (a *App) Home(ctx context.Context, refresh bool) (HomeView, error) {
	var view HomeView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := a.courses.List(gctx)
		view.Courses = res.Value
		return res.Err()
	})
	g.Go(func() error {
		res := a.auth.Profile(gctx)
		if err := res.Err(); err != nil {
			a.logger.Warn("home profile unavailable", "kind", res.Kind.String(), "status", res.Status, "err", err)
		}
		view.Profile = res.Value
		return nil
	})
	g.Go(func() error {
		view.Interests = a.storedInterests(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return HomeView{}, err
	}

	view.Featured = view.Courses
	if len(view.Featured) > featuredCount {
		view.Featured = view.Featured[:featuredCount]
	}

	view.AI = []domain.Course{}
	if view.Interests == "" {
		return view, nil
	}
	ai, err := a.cache.Recommendations(ctx, view.Interests, refresh)
	if err != nil {
		a.logger.Warn("home recommendations unavailable", "err", err)
		view.AIErr = err.Error()
		return view, nil
	}
	view.AI = ai
	return view, nil
}
