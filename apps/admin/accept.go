package main

import (
	"context"
	"fmt"
)

// acceptApplication converts an application and prints the outcome, warnings included.
func (cli *commandLine) acceptApplication(id int, pwd string) error {
	res, err := cli.studentSvc.AcceptApplication(context.Background(), id, pwd)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cli.out, "warning [%s]: %s\n", w.Step, w.Message)
	}
	return cli.printJSON(res)
}

func (cli *commandLine) nextStudentID(collegeID int) error {
	sid, err := cli.studentSvc.PreviewStudentID(context.Background(), collegeID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, sid)
	return nil
}
