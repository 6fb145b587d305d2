package observe_test

import (
	"sync"
	"testing"

	"github.com/okian/planner/internal/domain/observe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHub(t *testing.T) {
	Convey("Given a hub with two subscribers", t, func() {
		var h observe.Hub[int]
		var got []string
		unA := h.Subscribe(func(v int) { got = append(got, "a") })
		h.Subscribe(func(v int) { got = append(got, "b") })

		Convey("Publish calls them in subscription order", func() {
			h.Publish(1)
			So(got, ShouldResemble, []string{"a", "b"})
		})

		Convey("Unsubscribe removes only that subscriber and is idempotent", func() {
			unA()
			unA()
			h.Publish(1)
			So(got, ShouldResemble, []string{"b"})
			So(h.Len(), ShouldEqual, 1)
		})

		Convey("A nil subscriber is ignored", func() {
			h.Subscribe(nil)()
			So(h.Len(), ShouldEqual, 2)
		})
	})

	Convey("Given concurrent publishers", t, func() {
		var h observe.Hub[int]
		var mu sync.Mutex
		total := 0
		h.Subscribe(func(v int) {
			mu.Lock()
			total += v
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.Publish(2)
			}()
		}
		wg.Wait()
		So(total, ShouldEqual, 100)
	})
}
