package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hash-not-analog/isuconquest/internal/idgen"
	"github.com/hash-not-analog/isuconquest/internal/model"
	"github.com/hash-not-analog/isuconquest/internal/storetest"
)

func TestRotateKeepsOneActiveSession(t *testing.T) {
	s := storetest.New()
	issuer := NewUserIssuer(idgen.NewSequence(0))
	ctx := context.Background()

	first, err := issuer.Rotate(ctx, s.UserSessions(), 1, 1000)
	require.NoError(t, err)
	second, err := issuer.Rotate(ctx, s.UserSessions(), 1, 2000)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, int64(2000+86400), second.ExpiredAt)

	active := s.UserSessions().Active(1)
	require.Len(t, active, 1)
	assert.Equal(t, second.SessionID, active[0].SessionID)
}

func TestAdminSessionIDIsUUID(t *testing.T) {
	s := storetest.New()
	issuer := NewAdminIssuer(idgen.NewSequence(0))

	sess, err := issuer.Rotate(context.Background(), s.AdminSessions(), 1, 1000)
	require.NoError(t, err)
	_, err = uuid.Parse(sess.SessionID)
	assert.NoError(t, err)
	assert.Empty(t, s.UserSessions().Active(1))
}

func TestRevoke(t *testing.T) {
	s := storetest.New()
	issuer := NewAdminIssuer(idgen.NewSequence(0))
	ctx := context.Background()

	sess, err := issuer.Rotate(ctx, s.AdminSessions(), 1, 1000)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(ctx, s.AdminSessions(), sess.SessionID, 1001))

	_, err = s.AdminSessions().FindSession(ctx, sess.SessionID)
	assert.Error(t, err)
}

func TestIssueTokenInvalidatesSameType(t *testing.T) {
	s := storetest.New()
	issuer := NewUserIssuer(idgen.NewSequence(0))
	ctx := context.Background()

	gacha, err := issuer.IssueToken(ctx, s, 1, model.TokenTypeGacha, 1000)
	require.NoError(t, err)
	cardExp, err := issuer.IssueToken(ctx, s, 1, model.TokenTypeCardExp, 1000)
	require.NoError(t, err)
	next, err := issuer.IssueToken(ctx, s, 1, model.TokenTypeGacha, 1100)
	require.NoError(t, err)
	assert.Equal(t, int64(1100+600), next.ExpiredAt)

	_, err = s.FindOneTimeToken(ctx, gacha.Token, model.TokenTypeGacha)
	assert.Error(t, err)
	_, err = s.FindOneTimeToken(ctx, cardExp.Token, model.TokenTypeCardExp)
	assert.NoError(t, err)
	_, err = s.FindOneTimeToken(ctx, next.Token, model.TokenTypeGacha)
	assert.NoError(t, err)
}
