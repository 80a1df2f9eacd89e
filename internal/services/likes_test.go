package services

import (
	"context"
	"testing"

	"pcprompts/internal/models"
	"pcprompts/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTogglePromptParity(t *testing.T) {
	gdb := testutil.NewDB(t)
	author := testutil.CreateUser(t, gdb, "autor@pc.sc.gov.br")
	liker := testutil.CreateUser(t, gdb, "leitor@pc.sc.gov.br")
	p := testutil.CreatePrompt(t, gdb, author.ID, "Relatório")

	svc := NewLikeService(gdb)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := svc.TogglePrompt(ctx, liker.ID, p.ID)
		require.NoError(t, err)

		var rows int64
		gdb.Model(&models.PromptLike{}).Where("user_id = ? AND prompt_id = ?", liker.ID, p.ID).Count(&rows)
		assert.LessOrEqual(t, rows, int64(1))

		if i%2 == 1 {
			assert.True(t, res.Liked, "toggle %d", i)
			assert.Equal(t, int64(1), res.LikesCount)
		} else {
			assert.False(t, res.Liked, "toggle %d", i)
			assert.Equal(t, int64(0), res.LikesCount)
		}
	}
}

func TestToggleDuplicateInsertCountsAsLiked(t *testing.T) {
	gdb := testutil.NewDB(t)
	author := testutil.CreateUser(t, gdb, "autor@pc.sc.gov.br")
	p := testutil.CreatePrompt(t, gdb, author.ID, "Ofício")
	c := testutil.CreateComment(t, gdb, author.ID, p.ID, "bom")

	// a concurrent request won the insert race
	require.NoError(t, gdb.Create(&models.CommentLike{UserID: author.ID, CommentID: c.ID}).Error)
	err := gdb.Create(&models.CommentLike{UserID: author.ID, CommentID: c.ID}).Error
	require.Error(t, err)

	svc := NewLikeService(gdb)
	res, err := svc.toggle(context.Background(), &models.CommentLike{}, "comment_id", author.ID, c.ID+1000,
		&models.CommentLike{UserID: author.ID, CommentID: c.ID})
	require.NoError(t, err)
	assert.True(t, res.Liked)

	var rows int64
	gdb.Model(&models.CommentLike{}).Where("user_id = ? AND comment_id = ?", author.ID, c.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestCountByAndLikedBy(t *testing.T) {
	gdb := testutil.NewDB(t)
	a := testutil.CreateUser(t, gdb, "a@pc.sc.gov.br")
	b := testutil.CreateUser(t, gdb, "b@pc.sc.gov.br")
	p1 := testutil.CreatePrompt(t, gdb, a.ID, "p1")
	p2 := testutil.CreatePrompt(t, gdb, a.ID, "p2")

	svc := NewLikeService(gdb)
	ctx := context.Background()
	_, err := svc.TogglePrompt(ctx, a.ID, p1.ID)
	require.NoError(t, err)
	_, err = svc.TogglePrompt(ctx, b.ID, p1.ID)
	require.NoError(t, err)
	_, err = svc.TogglePrompt(ctx, b.ID, p2.ID)
	require.NoError(t, err)

	counts, err := CountBy(ctx, gdb, &models.PromptLike{}, "prompt_id", []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[p1.ID])
	assert.Equal(t, 1, counts[p2.ID])

	liked, err := svc.LikedBy(ctx, &models.PromptLike{}, "prompt_id", a.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.True(t, liked[p1.ID])
	assert.False(t, liked[p2.ID])

	liked, err = svc.LikedBy(ctx, &models.PromptLike{}, "prompt_id", 0, []uint{p1.ID})
	require.NoError(t, err)
	assert.Empty(t, liked)
}
