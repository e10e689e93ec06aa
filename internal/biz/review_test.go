package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewRow(id int64, place, created string, up, down int64) Row {
	return Row{
		"id": id, "place_manage_no": place, "nickname": "손님" + itoa(int(id)),
		"rating": float64(id%5 + 1), "content": "맛있어요", "created_at": created,
		"up_count": up, "down_count": down,
	}
}

func TestListReviewsNewestFirst(t *testing.T) {
	store := newFakeStore()
	store.add("reviews_with_votes",
		reviewRow(1, "P1", "2024-01-01T10:00:00Z", 2, 0),
		reviewRow(2, "P1", "2024-03-01T10:00:00Z", 0, 1),
		reviewRow(3, "P2", "2024-05-01T10:00:00Z", 0, 0),
		reviewRow(4, "P1", "2024-03-01T10:00:00Z", 0, 0),
	)
	uc := newTestUsecase(store)

	reviews, err := uc.ListReviews(context.Background(), "P1")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	// 同一时间按 id 倒序
	assert.Equal(t, []int64{4, 2, 1}, []int64{reviews[0].ID, reviews[1].ID, reviews[2].ID})
	assert.Equal(t, "P1", reviews[2].PlaceID)
	assert.Equal(t, "손님1", reviews[2].Nickname)
	assert.Equal(t, 2.0, reviews[2].Rating)
	assert.EqualValues(t, 2, reviews[2].UpCount)
	assert.EqualValues(t, 1, reviews[1].DownCount)
	require.NotNil(t, reviews[2].CreatedAt)
	assert.True(t, reviews[2].CreatedAt.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

	q := store.queriesOn("reviews_with_votes")
	require.Len(t, q, 1)
	assert.Equal(t, CountNone, q[0].Count)
	assert.Equal(t, Range{From: 0, To: 199}, *q[0].Range)
}

func TestListReviewsEmpty(t *testing.T) {
	uc := newTestUsecase(newFakeStore())

	reviews, err := uc.ListReviews(context.Background(), "P1")
	require.NoError(t, err)
	assert.Empty(t, reviews)

	_, err = uc.ListReviews(context.Background(), "")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestListReviewsStoreError(t *testing.T) {
	store := newFakeStore()
	boom := &StoreError{Code: CodePermanent, Message: "down", Err: errors.New("down")}
	store.fail = func(*Query) error { return boom }
	uc := newTestUsecase(store)

	_, err := uc.ListReviews(context.Background(), "P1")
	assert.ErrorIs(t, err, boom)
}

func TestAsTime(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, &ts, asTime(ts))
	assert.Nil(t, asTime(time.Time{}))
	require.NotNil(t, asTime("2024-02-03 04:05:06"))
	assert.True(t, asTime("2024-02-03 04:05:06").Equal(ts))
	assert.True(t, asTime("2024-02-03 04:05:06 +0000 UTC").Equal(ts))
	assert.True(t, asTime("2024-02-03 04:05:06 +0000 UTC m=+0.012345").Equal(ts))
	assert.Nil(t, asTime("yesterday"))
	assert.Nil(t, asTime(nil))
}
