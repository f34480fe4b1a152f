package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) newBreaker(opts ...Option) *Breaker {
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return New("redis-cache", opts...)
}

func (s *BreakerSuite) trip(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.newBreaker()
	s.Equal("redis-cache", b.Name())
	s.Equal(StateClosed, b.State())
	s.Equal("closed", b.State().String())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpening() {
	s.Run("stays closed below the failure threshold", func() {
		b := s.newBreaker(WithFailureThreshold(3))
		s.trip(b, 2)
		s.False(b.IsOpen())
	})

	s.Run("reports the transition on the failure that opens it", func() {
		b := s.newBreaker(WithFailureThreshold(3))
		s.trip(b, 2)
		useFallback, change := b.RecordFailure()
		s.True(useFallback)
		s.True(change.Opened)
		s.Equal("open", b.State().String())
	})

	s.Run("further failures keep the fallback without a new transition", func() {
		b := s.newBreaker(WithFailureThreshold(1))
		s.trip(b, 1)
		useFallback, change := b.RecordFailure()
		s.True(useFallback)
		s.False(change.Opened)
	})

	s.Run("a success between failures restarts the count", func() {
		b := s.newBreaker(WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestClosing() {
	s.Run("needs consecutive successes", func() {
		b := s.newBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))
		s.trip(b, 1)

		usePrimary, change := b.RecordSuccess()
		s.False(usePrimary)
		s.False(change.Closed)

		usePrimary, change = b.RecordSuccess()
		s.True(usePrimary)
		s.True(change.Closed)
		s.False(b.IsOpen())
	})

	s.Run("a failure while open discards earlier successes", func() {
		b := s.newBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))
		s.trip(b, 1)
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		s.True(b.IsOpen())
		b.RecordSuccess()
		s.False(b.IsOpen())
	})

	s.Run("reset closes immediately", func() {
		b := s.newBreaker(WithFailureThreshold(1))
		s.trip(b, 1)
		b.Reset()
		s.Equal(StateClosed, b.State())
		s.True(b.Allow())
	})
}

func (s *BreakerSuite) TestLetsTrialCallsThroughWhileOpen() {
	b := s.newBreaker(WithFailureThreshold(1), WithRetryInterval(time.Second))
	s.trip(b, 1)
	s.False(b.Allow())

	s.now = s.now.Add(time.Second)
	s.True(b.Allow())
	s.False(b.Allow(), "one trial call per interval")

	s.now = s.now.Add(500 * time.Millisecond)
	s.False(b.Allow())
	s.now = s.now.Add(500 * time.Millisecond)
	s.True(b.Allow())
}

func (s *BreakerSuite) TestIgnoresNonPositiveThresholds() {
	b := s.newBreaker(WithFailureThreshold(0), WithSuccessThreshold(-1))
	s.trip(b, defaultFailureThreshold-1)
	s.False(b.IsOpen())
	b.RecordFailure()
	s.True(b.IsOpen())
}
