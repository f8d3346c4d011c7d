package alnmerge_test

import (
	"context"
	"errors"
	"io"
	"math/rand"

	"github.com/bsm/alnmerge"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Merge", func() {
	var ctx context.Context
	var sink *alnmerge.SliceSink[rec]

	BeforeEach(func() {
		ctx = context.Background()
		sink = new(alnmerge.SliceSink[rec])
	})

	merge := func(srcs []alnmerge.Source[rec], opts *alnmerge.Options) (*alnmerge.Stats, error) {
		return alnmerge.Merge(ctx, srcs, alnmerge.Sink[rec](sink), opts)
	}

	It("should merge by coordinate", func() {
		stats, err := merge(sources(
			[]rec{mk(0, 100, "a1"), mk(0, 300, "a2"), mk(1, 50, "a3")},
			[]rec{mk(0, 200, "b1"), mk(alnmerge.Unmapped, 10, "b2")},
		), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1", "b1", "a2", "a3", "b2"}))
		Expect(stats.Selections).To(Equal(int64(5)))
		Expect(stats.PerSource).To(Equal([]int64{3, 2}))
		Expect(stats.Dropped).To(BeEmpty())
		Expect(stats.Cancelled).To(BeFalse())
	})

	It("should prefer the lowest source index on ties", func() {
		_, err := merge(sources(
			[]rec{mk(0, 5, "a1"), mk(0, 7, "a2")},
			[]rec{mk(0, 5, "b1"), mk(0, 5, "b2")},
			[]rec{mk(0, 5, "c1")},
		), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1", "b1", "b2", "c1", "a2"}))
	})

	It("should reproduce a single source", func() {
		recs := randomSorted(rand.New(rand.NewSource(1)), 200, "a")
		want := append([]rec(nil), recs...)

		stats, err := merge(sources(recs), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.Records).To(Equal(want))
		Expect(stats.Selections).To(Equal(int64(200)))
	})

	It("should merge zero sources", func() {
		stats, err := merge(nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.Records).To(BeEmpty())
		Expect(stats.Sources).To(Equal(0))
		Expect(stats.Selections).To(BeZero())
	})

	It("should merge empty sources", func() {
		stats, err := merge(sources(nil, nil, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.Records).To(BeEmpty())
		Expect(stats.Sources).To(Equal(3))
		Expect(stats.Selections).To(BeZero())
	})

	It("should sort unmapped records last", func() {
		_, err := merge(sources(
			[]rec{mk(0, 1, "a1"), mk(alnmerge.Unmapped, 0, "a2")},
			[]rec{mk(5, 1000000, "b1"), mk(9, 7, "b2")},
			[]rec{mk(alnmerge.Unmapped, -1, "c1")},
		), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1", "b1", "b2", "c1", "a2"}))
	})

	It("should drop failing sources", func() {
		var dropped []int
		stats, err := merge([]alnmerge.Source[rec]{
			&failingSource{recs: []rec{mk(0, 10, "a1"), mk(0, 20, "a2")}, err: errBoom},
			alnmerge.NewSliceSource(mk(0, 1, "b1"), mk(0, 2, "b2"), mk(0, 3, "b3")),
		}, &alnmerge.Options{
			OnDrop: func(i int, err error) {
				Expect(err).To(MatchError(errBoom))
				dropped = append(dropped, i)
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"b1", "b2", "b3", "a1", "a2"}))
		Expect(stats.Dropped).To(Equal([]int{0}))
		Expect(dropped).To(Equal([]int{0}))
	})

	It("should drop sources failing on the first read", func() {
		stats, err := merge([]alnmerge.Source[rec]{
			&failingSource{err: errBoom},
			alnmerge.NewSliceSource(mk(0, 1, "b1")),
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"b1"}))
		Expect(stats.Dropped).To(Equal([]int{0}))
	})

	It("should complete when all sources fail", func() {
		stats, err := merge([]alnmerge.Source[rec]{
			&failingSource{err: errBoom},
			&failingSource{err: errBoom},
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.Records).To(BeEmpty())
		Expect(stats.Dropped).To(Equal([]int{0, 1}))
	})

	It("should abort on source failures in strict mode", func() {
		stats, err := merge([]alnmerge.Source[rec]{
			alnmerge.NewSliceSource(mk(0, 1, "a1"), mk(0, 3, "a2")),
			&failingSource{recs: []rec{mk(0, 2, "b1")}, err: errBoom},
		}, &alnmerge.Options{Strict: true})

		var serr *alnmerge.SourceError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Source).To(Equal(1))
		Expect(err).To(MatchError(errBoom))
		Expect(err).To(MatchError(`alnmerge: source 1: boom`))
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1", "b1"}))
		Expect(stats.Dropped).To(Equal([]int{1}))
	})

	It("should abort on sink failures", func() {
		n := 0
		failing := alnmerge.SinkFunc[rec](func(r rec) error {
			if n == 2 {
				return errBoom
			}
			n++
			return sink.Append(r)
		})

		stats, err := alnmerge.Merge[rec](ctx, sources(
			[]rec{mk(0, 1, "a1"), mk(0, 3, "a2")},
			[]rec{mk(0, 2, "b1"), mk(0, 4, "b2")},
		), failing, nil)

		var serr *alnmerge.SinkError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Source).To(Equal(0))
		Expect(err).To(MatchError(errBoom))
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1", "b1"}))
		Expect(stats.Selections).To(Equal(int64(2)))
	})

	It("should stop on cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		n := 0
		cancelling := alnmerge.SinkFunc[rec](func(r rec) error {
			if n++; n == 3 {
				cancel()
			}
			return sink.Append(r)
		})

		stats, err := alnmerge.Merge[rec](cctx, sources(
			[]rec{mk(0, 1, "a1"), mk(0, 3, "a2"), mk(0, 5, "a3")},
			[]rec{mk(0, 2, "b1"), mk(0, 4, "b2")},
		), cancelling, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Cancelled).To(BeTrue())
		Expect(stats.Selections).To(Equal(int64(3)))
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1", "b1", "a2"}))
	})

	It("should not emit when cancelled upfront", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		stats, err := alnmerge.Merge(cctx, sources([]rec{mk(0, 1, "a1")}), alnmerge.Sink[rec](sink), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Cancelled).To(BeTrue())
		Expect(sink.Records).To(BeEmpty())
	})

	It("should translate records", func() {
		shift := func(r rec) (rec, error) {
			if !r.K.IsUnmapped() {
				r.K.RefID += 10
			}
			return r, nil
		}
		src := alnmerge.Translate[rec](alnmerge.NewSliceSource(mk(0, 1, "a1"), mk(alnmerge.Unmapped, 0, "a2")), shift)

		_, err := merge([]alnmerge.Source[rec]{src}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(keysOf(sink.Records)).To(Equal([]alnmerge.Key{{RefID: 10, Pos: 1}, {RefID: alnmerge.Unmapped, Pos: 0}}))
	})

	It("should treat translation failures as read failures", func() {
		src := alnmerge.Translate[rec](alnmerge.NewSliceSource(mk(0, 1, "a1"), mk(0, 2, "a2")), func(r rec) (rec, error) {
			if r.Tag == "a2" {
				return r, errBoom
			}
			return r, nil
		})

		stats, err := merge([]alnmerge.Source[rec]{src}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"a1"}))
		Expect(stats.Dropped).To(Equal([]int{0}))
	})

	DescribeTable("properties",
		func(numSources, heapThreshold int) {
			rnd := rand.New(rand.NewSource(int64(numSources)))

			var all []rec
			seqs := make([][]rec, numSources)
			for i := range seqs {
				seqs[i] = randomSorted(rnd, rnd.Intn(40), string(rune('a'+i%26)))
				all = append(all, seqs[i]...)
			}

			stats, err := merge(sources(seqs...), &alnmerge.Options{HeapThreshold: heapThreshold})
			Expect(err).NotTo(HaveOccurred())

			By("preserving order")
			for i := 1; i < len(sink.Records); i++ {
				Expect(sink.Records[i].K.Less(sink.Records[i-1].K)).To(BeFalse())
			}

			By("emitting every record once")
			Expect(stats.Selections).To(Equal(int64(len(all))))
			Expect(sink.Records).To(ConsistOf(all))
			for i, seq := range seqs {
				Expect(stats.PerSource[i]).To(Equal(int64(len(seq))))
			}
		},
		Entry("1 source", 1, 0),
		Entry("3 sources", 3, 0),
		Entry("20 sources", 20, -1),
		Entry("20 sources, heap", 20, 2),
		Entry("100 sources, heap", 100, 0),
	)

	It("should select identically with heap and linear scan", func() {
		build := func() []alnmerge.Source[rec] {
			rnd := rand.New(rand.NewSource(7))
			seqs := make([][]rec, 30)
			for i := range seqs {
				seqs[i] = randomSorted(rnd, 25, string(rune('A'+i)))
			}
			return sources(seqs...)
		}

		linear := new(alnmerge.SliceSink[rec])
		_, err := alnmerge.Merge(ctx, build(), alnmerge.Sink[rec](linear), &alnmerge.Options{HeapThreshold: -1})
		Expect(err).NotTo(HaveOccurred())

		heaped := new(alnmerge.SliceSink[rec])
		_, err = alnmerge.Merge(ctx, build(), alnmerge.Sink[rec](heaped), &alnmerge.Options{HeapThreshold: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(linear.Records).To(HaveLen(750))
		Expect(tagsOf(heaped.Records)).To(Equal(tagsOf(linear.Records)))
	})

	It("should drop failing sources with heap selection", func() {
		stats, err := merge([]alnmerge.Source[rec]{
			&failingSource{recs: []rec{mk(0, 10, "a1"), mk(0, 20, "a2")}, err: errBoom},
			alnmerge.NewSliceSource(mk(0, 1, "b1"), mk(0, 30, "b2")),
			alnmerge.NewSliceSource[rec](),
		}, &alnmerge.Options{HeapThreshold: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(tagsOf(sink.Records)).To(Equal([]string{"b1", "a1", "a2", "b2"}))
		Expect(stats.Dropped).To(Equal([]int{0}))
	})
})

var _ = Describe("SliceSource", func() {
	It("should read and signal EOF", func() {
		src := alnmerge.NewSliceSource(mk(0, 1, "a"), mk(0, 2, "b"))

		r, err := src.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Tag).To(Equal("a"))

		r, err = src.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Tag).To(Equal("b"))

		_, err = src.Next()
		Expect(err).To(Equal(io.EOF))
		_, err = src.Next()
		Expect(err).To(Equal(io.EOF))
	})
})
