package teams

import (
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/smallnest/teamgraph/tool"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

const (
	WritingTeam          = "writing_team"
	WritingSupervisor    = "doc_writing_team_supervisor"
	DocWriterWorker      = "doc_writer"
	NoteTakerWorker      = "note_taker"
	ChartGeneratorWorker = "chart_generator"
)

const (
	docWriterInstruction = "You can read, write and edit documents based on note-taker's outlines. " +
		"Don't ask follow-up questions."
	noteTakerInstruction = "You can read documents and create outlines for the document writer. " +
		"Don't ask follow-up questions."
)

// NewWritingTeam builds the team that outlines, writes and illustrates
// documents in ws.
func NewWritingTeam(model llms.Model, ws *tool.Workspace, python tools.Tool) (*prebuilt.Team, error) {
	outline, read, write, edit := tool.DocumentTools(ws)

	docWriter, err := prebuilt.NewWorker(DocWriterWorker, model,
		[]tools.Tool{write, edit, read},
		prebuilt.WithInstruction(docWriterInstruction))
	if err != nil {
		return nil, err
	}
	noteTaker, err := prebuilt.NewWorker(NoteTakerWorker, model,
		[]tools.Tool{outline, read},
		prebuilt.WithInstruction(noteTakerInstruction))
	if err != nil {
		return nil, err
	}
	chartGenerator, err := prebuilt.NewWorker(ChartGeneratorWorker, model,
		[]tools.Tool{read, python})
	if err != nil {
		return nil, err
	}

	return prebuilt.NewTeam(WritingTeam, model,
		[]prebuilt.Member{docWriter, noteTaker, chartGenerator},
		prebuilt.WithSupervisorName(WritingSupervisor))
}
