package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/repository"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCacheStore(t *testing.T) {
	Convey("Given an empty cache store", t, func() {
		ctx := context.Background()
		store := repository.NewCacheStore(repository.WithTTL(time.Hour))
		base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

		So(store.Count(ctx), ShouldEqual, 0)

		Convey("When runs are saved", func() {
			So(store.Save(ctx, &types.Report{RunID: "a", CreatedAt: base}), ShouldBeNil)
			So(store.Save(ctx, &types.Report{RunID: "b", CreatedAt: base.Add(time.Minute)}), ShouldBeNil)
			So(store.Save(ctx, &types.Report{RunID: "c", CreatedAt: base}), ShouldBeNil)

			Convey("Then they can be fetched by id", func() {
				r, err := store.Get(ctx, "b")
				So(err, ShouldBeNil)
				So(r.RunID, ShouldEqual, "b")
				So(store.Count(ctx), ShouldEqual, 3)
			})

			Convey("And List orders newest first, ties by id", func() {
				runs, err := store.List(ctx)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 3)
				So(runs[0].RunID, ShouldEqual, "b")
				So(runs[1].RunID, ShouldEqual, "a")
				So(runs[2].RunID, ShouldEqual, "c")
			})

			Convey("And saving the same id replaces the run", func() {
				So(store.Save(ctx, &types.Report{RunID: "a", Source: "second", CreatedAt: base}), ShouldBeNil)
				r, _ := store.Get(ctx, "a")
				So(r.Source, ShouldEqual, "second")
				So(store.Count(ctx), ShouldEqual, 3)
			})
		})

		Convey("When an unknown run is requested", func() {
			_, err := store.Get(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a report without id is saved", func() {
			err := store.Save(ctx, &types.Report{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidReport), ShouldBeTrue)
				So(errors.Is(store.Save(ctx, nil), repository.ErrInvalidReport), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store with a short TTL", t, func() {
		ctx := context.Background()
		store := repository.NewCacheStore(
			repository.WithTTL(20*time.Millisecond),
			repository.WithCleanupInterval(5*time.Millisecond),
		)
		So(store.Save(ctx, &types.Report{RunID: "old"}), ShouldBeNil)

		Convey("When the TTL passes", func() {
			time.Sleep(60 * time.Millisecond)

			Convey("Then the run is gone", func() {
				_, err := store.Get(ctx, "old")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a store without expiry", t, func() {
		store := repository.NewCacheStore(repository.WithTTL(0))
		So(store.Save(context.Background(), &types.Report{RunID: "kept"}), ShouldBeNil)

		Convey("Then runs stay", func() {
			_, err := store.Get(context.Background(), "kept")
			So(err, ShouldBeNil)
		})
	})
}
