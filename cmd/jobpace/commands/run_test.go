package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleixmp/jobpace/internal/model"
)

func writeRequestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunCommandJobRequest(t *testing.T) {
	requestFile := writeRequestFile(t, `
type: pdf
input: /reports/input.html
template: monthly
options:
  locale: ko
  paper: a4
`)

	tests := map[string]struct {
		cmd    RunCommand
		expReq model.JobRequest
		expErr bool
	}{
		"Flags alone should build the request.": {
			cmd: RunCommand{
				jobType:   "html",
				inputPath: "/reports/input.html",
				options:   map[string]string{"locale": "ko"},
			},
			expReq: model.JobRequest{
				Type:      model.JobTypeHTML,
				InputPath: "/reports/input.html",
				Options:   map[string]string{"locale": "ko"},
			},
		},

		"A request file should fill missing fields.": {
			cmd: RunCommand{
				options:     map[string]string{},
				requestFile: requestFile,
			},
			expReq: model.JobRequest{
				Type:       model.JobTypePDF,
				InputPath:  "/reports/input.html",
				TemplateID: "monthly",
				Options:    map[string]string{"locale": "ko", "paper": "a4"},
			},
		},

		"Flags should win over request file fields and options.": {
			cmd: RunCommand{
				jobType:     "docx",
				options:     map[string]string{"locale": "en"},
				requestFile: requestFile,
			},
			expReq: model.JobRequest{
				Type:       model.JobTypeDOCX,
				InputPath:  "/reports/input.html",
				TemplateID: "monthly",
				Options:    map[string]string{"locale": "en", "paper": "a4"},
			},
		},

		"A missing input path should fail validation.": {
			cmd: RunCommand{
				jobType: "html",
				options: map[string]string{},
			},
			expErr: true,
		},

		"An unreadable request file should fail.": {
			cmd: RunCommand{
				options:     map[string]string{},
				requestFile: "/does/not/exist.yaml",
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := test.cmd.jobRequest()

			if test.expErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expReq, req)
		})
	}
}
