package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/core/ports/mocks"
	"go.trai.ch/gate/internal/engine/policy"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	env    *mocks.MockEnvironment
	loader *mocks.MockEventLoader
	refs   *mocks.MockRefSource
	logger *mocks.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &fixture{
		env:    mocks.NewMockEnvironment(ctrl),
		loader: mocks.NewMockEventLoader(ctrl),
		refs:   mocks.NewMockRefSource(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
}

func (f *fixture) evaluator(settings domain.BranchSettings, unmatched domain.PolicyDefault) *policy.Evaluator {
	mergePolicy := domain.MergePolicy{
		Rules:     map[string]string{"staging": "development", "master": "staging"},
		Unmatched: unmatched,
	}
	return policy.NewEvaluator(settings, mergePolicy, f.env, f.loader, f.refs, f.logger)
}

func TestEvaluator_Gate_AllowsPullRequestFromRequiredBranch(t *testing.T) {
	f := newFixture(t)
	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("refs/pull/7/merge", nil)
	f.loader.EXPECT().Load(gomock.Any()).Return([]byte(prEvent), nil)
	f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("staging", true)
	f.logger.EXPECT().Info("merge allowed by branch policy", gomock.Any())

	err := f.evaluator(domain.BranchSettings{}, domain.PolicyPermit).Gate(t.Context())
	require.NoError(t, err)
}

func TestEvaluator_Gate_RejectsWrongSource(t *testing.T) {
	f := newFixture(t)
	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("feature/login", nil)
	f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("master", true)
	f.logger.EXPECT().Warn("merge rejected by branch policy", "source", "feature/login", "target", "master")

	err := f.evaluator(domain.BranchSettings{}, domain.PolicyPermit).Gate(t.Context())
	require.ErrorIs(t, err, domain.ErrPolicyViolation)

	var violation *domain.PolicyViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, domain.PolicyViolation{Target: "master", Required: "staging", Actual: "feature/login"}, *violation)
}

func TestEvaluator_Gate_Unmatched(t *testing.T) {
	t.Run("permit", func(t *testing.T) {
		f := newFixture(t)
		f.refs.EXPECT().CurrentRef(gomock.Any()).Return("hotfix", nil)
		f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("release", true)
		f.logger.EXPECT().Info(gomock.Any(), gomock.Any())

		require.NoError(t, f.evaluator(domain.BranchSettings{}, domain.PolicyPermit).Gate(t.Context()))
	})

	t.Run("deny", func(t *testing.T) {
		f := newFixture(t)
		f.refs.EXPECT().CurrentRef(gomock.Any()).Return("hotfix", nil)
		f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("release", true)
		f.logger.EXPECT().Warn(gomock.Any(), gomock.Any())

		err := f.evaluator(domain.BranchSettings{}, domain.PolicyDeny).Gate(t.Context())
		var violation *domain.PolicyViolation
		require.ErrorAs(t, err, &violation)
		assert.Empty(t, violation.Required)
	})
}

func TestEvaluator_Gate_ResolutionErrors(t *testing.T) {
	t.Run("ref source fails", func(t *testing.T) {
		f := newFixture(t)
		refErr := domain.Tag(domain.ErrMissingSourceRef)
		f.refs.EXPECT().CurrentRef(gomock.Any()).Return("", refErr)

		err := f.evaluator(domain.BranchSettings{}, domain.PolicyPermit).Gate(t.Context())
		require.ErrorIs(t, err, domain.ErrMissingSourceRef)
	})

	t.Run("missing base ref", func(t *testing.T) {
		f := newFixture(t)
		f.refs.EXPECT().CurrentRef(gomock.Any()).Return("development", nil)
		f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("", false)

		err := f.evaluator(domain.BranchSettings{}, domain.PolicyPermit).Gate(t.Context())
		require.ErrorIs(t, err, domain.ErrMissingTargetBranch)
	})

	t.Run("broken payload", func(t *testing.T) {
		f := newFixture(t)
		f.refs.EXPECT().CurrentRef(gomock.Any()).Return("refs/pull/3/merge", nil)
		f.loader.EXPECT().Load(gomock.Any()).Return(nil, errors.New("event path not set"))

		err := f.evaluator(domain.BranchSettings{}, domain.PolicyPermit).Gate(t.Context())
		require.ErrorIs(t, err, domain.ErrMalformedEventPayload)
	})
}

func TestEvaluator_CustomSettings(t *testing.T) {
	f := newFixture(t)
	settings := domain.BranchSettings{BaseRefVar: "CI_MERGE_REQUEST_TARGET_BRANCH_NAME", PullRequestPrefix: "refs/merge-requests/"}
	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("refs/merge-requests/4/head", nil)
	f.loader.EXPECT().Load(gomock.Any()).Return([]byte(prEvent), nil)
	f.env.EXPECT().Lookup("CI_MERGE_REQUEST_TARGET_BRANCH_NAME").Return("staging", true)

	decision, err := f.evaluator(settings, domain.PolicyPermit).Evaluate(t.Context())
	require.NoError(t, err)
	assert.True(t, decision.Allowed())
	assert.Equal(t, "development", decision.Source.Name)
	assert.Equal(t, "staging", decision.Target)
}

func TestEvaluator_DefaultPrefixIgnoredWhenCustom(t *testing.T) {
	f := newFixture(t)
	settings := domain.BranchSettings{PullRequestPrefix: "refs/merge-requests/"}

	ref, err := f.evaluator(settings, domain.PolicyPermit).ResolveSourceBranch(t.Context(), "refs/pull/1/merge")
	require.NoError(t, err)
	assert.Equal(t, "refs/pull/1/merge", ref.Name)
	assert.False(t, ref.FromEvent)
}

func TestEvaluator_LastDecision(t *testing.T) {
	f := newFixture(t)
	ev := f.evaluator(domain.BranchSettings{}, domain.PolicyPermit)

	_, ok := ev.LastDecision()
	assert.False(t, ok)

	f.refs.EXPECT().CurrentRef(gomock.Any()).Return("development", nil)
	f.env.EXPECT().Lookup("GITHUB_BASE_REF").Return("staging", true)
	f.logger.EXPECT().Info(gomock.Any(), gomock.Any())
	require.NoError(t, ev.Gate(t.Context()))

	decision, ok := ev.LastDecision()
	require.True(t, ok)
	assert.Equal(t, "development", decision.Source.Name)
	assert.Equal(t, "staging", decision.Target)
}
