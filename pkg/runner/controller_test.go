package runner_test

import (
	"github.com/aretw0/ayr"
	"github.com/aretw0/ayr/pkg/runner"
)

var _ runner.Controller = (*ayr.Controller)(nil)
