package cli

import (
	"strconv"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/Houman6460/fooodis-blog-sub005/internal/transfer"
	"github.com/spf13/cobra"
)

// PublisherFn opens whatever the command needs and hands back the publisher.
type PublisherFn func(cmd *cobra.Command) (service.PublisherService, error)

// NewScheduledPostCmds returns the commands that drive the publisher
// directly against the database, for deployments without the cron loop.
func NewScheduledPostCmds(publisherFn PublisherFn, outputFn func() *Output) []*cobra.Command {
	return []*cobra.Command{
		newDueCmd(publisherFn, outputFn),
		newSweepCmd(publisherFn, outputFn),
		newPublishCmd(publisherFn, outputFn),
		newRequeueCmd(publisherFn, outputFn),
	}
}

func newDueCmd(publisherFn PublisherFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List scheduled posts that are due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := publisherFn(cmd)
			if err != nil {
				return err
			}

			now := time.Now()
			posts, err := ps.ListDue(cmd.Context(), now)
			if err != nil {
				return err
			}

			views := make([]transfer.ScheduledPostView, len(posts))
			rows := make([][]string, len(posts))
			for i, p := range posts {
				views[i] = transfer.NewDuePostView(p, now.UnixMilli())
				rows[i] = []string{p.ID, p.Title, strconv.Itoa(p.Priority), views[i].ScheduledDate, strconv.Itoa(p.RetryCount)}
			}

			outputFn().Print(
				[]string{"ID", "TITLE", "PRIORITY", "SCHEDULED", "RETRIES"},
				rows,
				transfer.DuePostsResponse{DueCount: len(views), Posts: views},
			)
			return nil
		},
	}
}

func newSweepCmd(publisherFn PublisherFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Publish every due scheduled post once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := publisherFn(cmd)
			if err != nil {
				return err
			}

			result, err := ps.CheckAndPublish(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			out := outputFn()
			rows := make([][]string, len(result.Details))
			for i, d := range result.Details {
				rows[i] = []string{d.ID, d.Title, d.Status, d.BlogPostID, d.Error}
			}
			out.Print([]string{"ID", "TITLE", "STATUS", "BLOG_POST", "ERROR"}, rows, result)
			out.Success("checked " + strconv.Itoa(result.Checked) +
				", published " + strconv.Itoa(result.Published) +
				", failed " + strconv.Itoa(result.Failed))
			return nil
		},
	}
}

func newPublishCmd(publisherFn PublisherFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "publish ID",
		Short: "Publish one scheduled post immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := publisherFn(cmd)
			if err != nil {
				return err
			}

			detail, err := ps.PublishNow(cmd.Context(), args[0], time.Now())
			if err != nil {
				return err
			}

			outputFn().Print(
				[]string{"ID", "TITLE", "STATUS", "BLOG_POST", "ERROR"},
				[][]string{{detail.ID, detail.Title, detail.Status, detail.BlogPostID, detail.Error}},
				detail,
			)
			return nil
		},
	}
}

func newRequeueCmd(publisherFn PublisherFn, outputFn func() *Output) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Return posts stuck in publishing to the retry cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := publisherFn(cmd)
			if err != nil {
				return err
			}

			n, err := ps.RequeueStranded(cmd.Context(), time.Now(), timeout)
			if err != nil {
				return err
			}

			outputFn().Print([]string{"REQUEUED"}, [][]string{{strconv.Itoa(n)}}, map[string]int{"requeued": n})
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Age of a publishing attempt before it counts as stranded")

	return cmd
}
