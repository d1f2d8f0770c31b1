package app

import (
	"context"
	"testing"

	"github.com/quantmind-br/pkgjson-go/internal/plan"
	"github.com/quantmind-br/pkgjson-go/internal/testutil"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RunPlan_AllPass(t *testing.T) {
	dir := testutil.NewPackage(t, testutil.DualPackage)
	svc := newTestService(t, newTestConfig(t))

	p := &plan.Plan{
		Checks: []plan.Check{
			{Package: dir, Request: ".", Expect: "./dist/index.js"},
			{Package: dir, Request: ".", Require: true, Expect: "./dist/index.cjs"},
			{Package: dir, Request: "./feature", Conditions: []string{"browser"}, Expect: "./dist/feature.js"},
			{Package: dir, Request: "./internal/x", ExpectError: "not_exported"},
			{Package: dir, Request: "#nope", ExpectError: "not_defined"},
			{Package: dir, Request: "#dep"},
		},
		Options: plan.Options{Concurrency: 3},
	}

	results, err := svc.RunPlan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, results, len(p.Checks))
	for _, r := range results {
		assert.True(t, r.Passed(), r.Check.Name())
	}
	assert.Equal(t, "dep-node-native", results[5].Target)
}

func TestService_RunPlan_ContinueOnError(t *testing.T) {
	dir := testutil.NewPackage(t, testutil.DualPackage)
	svc := newTestService(t, newTestConfig(t))

	p := &plan.Plan{
		Checks: []plan.Check{
			{Package: dir, Request: ".", Expect: "./wrong.js"},
			{Package: t.TempDir(), Request: "."},
			{Package: dir, Request: "./feature"},
		},
		Options: plan.Options{ContinueOnError: true, Concurrency: 1},
	}

	results, err := svc.RunPlan(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrExpectationFailed)
	assert.Contains(t, err.Error(), "2/3 failures")

	assert.False(t, results[0].Passed())
	assert.Equal(t, "./dist/index.js", results[0].Target)
	assert.False(t, results[1].Passed(), "a missing package never passes")
	assert.True(t, results[2].Passed())
}

func TestService_RunPlan_StopsOnFirstFailure(t *testing.T) {
	dir := testutil.NewPackage(t, testutil.DualPackage)
	svc := newTestService(t, newTestConfig(t))

	p := &plan.Plan{
		Checks: []plan.Check{
			{Package: dir, Request: "./internal/x"},
		},
		Options: plan.Options{Concurrency: 1},
	}

	results, err := svc.RunPlan(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check "+dir+" ./internal/x")
	assert.False(t, results[0].Passed())
}

func TestService_RunPlan_SkipsRemainingChecks(t *testing.T) {
	dir := testutil.NewPackage(t, testutil.DualPackage)
	svc := newTestService(t, newTestConfig(t))

	p := &plan.Plan{
		Checks: []plan.Check{
			{Package: dir, Request: ".", Expect: "./dist/index.js"},
			{Package: dir, Request: "./feature", Expect: "./wrong.js"},
			{Package: dir, Request: "#dep"},
			{Package: dir, Request: "./lib/a", Expect: "./dist/lib/a.js"},
		},
		Options: plan.Options{Concurrency: 1},
	}

	results, err := svc.RunPlan(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrExpectationFailed)
	assert.Contains(t, err.Error(), "1/4 failures, 2 skipped")

	require.Len(t, results, 4)
	assert.True(t, results[0].Passed())
	assert.False(t, results[1].Passed())
	assert.False(t, results[1].Skipped)
	for _, r := range results[2:] {
		assert.True(t, r.Skipped)
		assert.False(t, r.Passed())
		assert.Equal(t, p.Checks[2].Package, r.Check.Package)
		assert.ErrorIs(t, r.Error, utils.ErrNotRun)
	}
	assert.Equal(t, "#dep", results[2].Check.Request)

	assert.Equal(t, PlanSummary{Total: 4, Passed: 1, Failed: 1, Skipped: 2}, SummarizeChecks(results))
}

func TestService_RunPlan_Empty(t *testing.T) {
	svc := newTestService(t, newTestConfig(t))

	results, err := svc.RunPlan(context.Background(), &plan.Plan{})
	assert.NoError(t, err)
	assert.Empty(t, results)
}
