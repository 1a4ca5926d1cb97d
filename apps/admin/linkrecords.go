package main

import (
	"context"
	"fmt"

	"github.com/trezcool/bolsa/core/linkage"
)

// linkRecords plans the missing candidate/student references, prints the plan and applies it
// unless dryRun is set.
func (cli *commandLine) linkRecords(ctx context.Context, dryRun bool, opts linkage.Options) error {
	rec := linkage.NewReconciler(cli.candRepo, cli.stdRepo, cli.logger, opts)

	plan, err := rec.Plan(ctx)
	if err != nil {
		return err
	}
	cli.printPlan(plan)

	if dryRun || plan.IsEmpty() {
		return nil
	}
	res, err := rec.Apply(ctx, plan)
	fmt.Fprintf(cli.out, "applied %d/%d fixes (%d writes, %d failed)\n", res.Applied, len(plan.Fixes), res.Writes, res.Failed)
	return err
}

func (cli *commandLine) printPlan(plan linkage.Plan) {
	fmt.Fprintf(cli.out, "scanned %d candidates and %d students\n", plan.Candidates, plan.Students)
	if plan.IsEmpty() {
		fmt.Fprintln(cli.out, "nothing to fix")
	}
	for _, fix := range plan.Fixes {
		line := fmt.Sprintf("fix   %-24s candidate=%s student=%s", fix.Kind, fix.CandidateID, fix.StudentID)
		if fix.Reason != "" {
			line += " (" + fix.Reason + ")"
		}
		fmt.Fprintln(cli.out, line)
	}
	for _, is := range plan.Issues {
		fmt.Fprintf(cli.out, "issue %-24s candidate=%s student=%s: %s\n", is.Kind, is.CandidateID, is.StudentID, is.Detail)
	}
}
