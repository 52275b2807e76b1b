package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
)

var errUsage = errors.New("usage")

type command struct {
	name  string
	usage string
	help  string
	run   func(a *App, ctx context.Context, args []string) error
}

// commands is the REPL command table; runREPL handles help and exit itself.
var commands = []command{
	{"courses", "courses", "list courses", (*App).ListCourses},
	{"use", "use <id|name>", "make a course active", (*App).UseCourse},
	{"mkcourse", "mkcourse <name>", "create a course", (*App).CreateCourse},
	{"rename", "rename <id> <name>", "rename a course", (*App).RenameCourse},
	{"rmcourse", "rmcourse <id>", "delete a course and its files", (*App).DeleteCourse},
	{"files", "files [course-id]", "list files of the active course", (*App).ListFiles},
	{"select", "select <file|#n>...", "add files to the selection", (*App).SelectFiles},
	{"toggle", "toggle <file|#n>", "toggle one file", (*App).ToggleFile},
	{"unselect", "unselect <file|#n>", "remove one file from the selection", (*App).UnselectFile},
	{"clear", "clear", "clear the selection", (*App).ClearSelection},
	{"upload", "upload <path>...", "upload files into the active course", (*App).Upload},
	{"rmfile", "rmfile <file|#n>", "delete an uploaded file", (*App).DeleteFile},
	{"import", "import <url>", "import a web page into the active course", (*App).Import},
	{"ask", "ask <question>", "chat about the selection, or generally", (*App).Ask},
	{"analyze", "analyze <path> [prompt]", "analyze a local pdf, audio or video file", (*App).Analyze},
	{"card", "card", "generate a note card from the selection", (*App).GenerateCard},
	{"handwrite", "handwrite", "turn typed text into a handwritten note", (*App).Handwrite},
	{"cards", "cards [all]", "list note cards", (*App).ListCards},
	{"editcard", "editcard <id|#n>", "edit a note card", (*App).EditCard},
	{"rmcard", "rmcard <id|#n>...", "delete note cards", (*App).DeleteCards},
	{"download", "download <id|#n>", "save a card image to the download dir", (*App).DownloadCard},
	{"save", "save [message-id]", "save the last (or given) reply as a note", (*App).SaveNote},
	{"notes", "notes [all]", "list saved notes", (*App).ListNotes},
	{"rmnote", "rmnote <id>", "delete a saved note", (*App).DeleteNote},
	{"share", "share", "publish the active course's notes", (*App).ShareNotes},
	{"history", "history [clear]", "show or wipe the conversation", (*App).History},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Exec runs one REPL command and prints the messages it produced.
func (a *App) Exec(ctx context.Context, name string, args []string) error {
	c, ok := lookupCommand(name)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, name)
	}
	err := c.run(a, ctx, args)
	a.flushMessages()
	if errors.Is(err, errUsage) {
		return fmt.Errorf("%w: %s", errUsage, c.usage)
	}
	return err
}

func (a *App) Help() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Commands") + "\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-26s %s\n", c.usage, mutedStyle.Render(c.help))
	}
	fmt.Fprintf(&b, "  %-26s %s\n", "help", mutedStyle.Render("show this list"))
	fmt.Fprintf(&b, "  %-26s %s", "exit | quit", mutedStyle.Render("leave"))
	return b.String()
}

// flushMessages prints log entries not shown yet. User messages echo what
// was just typed and placeholders are transient, so neither is printed.
func (a *App) flushMessages() {
	for _, m := range a.store.Snapshot().Messages {
		if m.Loading {
			continue
		}
		if _, ok := a.shown[m.ID]; ok {
			continue
		}
		a.shown[m.ID] = struct{}{}
		if m.Role == models.RoleUser {
			continue
		}
		a.println(renderMessage(m))
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.writer(), args...)
}

// activeFiles returns the cached listing of the active course.
func (a *App) activeFiles() []models.FileRecord {
	snap := a.store.Snapshot()
	files, _ := snap.FilesOf(snap.ActiveCollection)
	return files
}

// resolveFile accepts a file id or a 1-based "#n" / "n" index into the
// active course's listing.
func (a *App) resolveFile(arg string) string {
	if n, ok := parseIndex(arg); ok {
		if files := a.activeFiles(); n <= len(files) {
			return files[n-1].ID
		}
	}
	return arg
}

func (a *App) resolveCard(arg string) (models.Card, error) {
	if n, ok := parseIndex(arg); ok && n <= len(a.lastCards) {
		return a.lastCards[n-1], nil
	}
	for _, c := range a.lastCards {
		if c.ID == arg {
			return c, nil
		}
	}
	return models.Card{}, fmt.Errorf("%w: card %s (run cards first)", common.ErrorNotFound, arg)
}

func parseIndex(arg string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (a *App) ListCourses(ctx context.Context, _ []string) error {
	list, err := a.collections.Refresh(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.println(mutedStyle.Render("no courses yet, create one with mkcourse"))
		return nil
	}
	active := a.store.Snapshot().ActiveCollection
	for _, c := range list {
		marker := " "
		if c.ID == active {
			marker = "*"
		}
		a.println(fmt.Sprintf("%s %-12s %s", marker, c.ID, c.Name))
	}
	return nil
}

func (a *App) UseCourse(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ref := strings.Join(args, " ")
	id := ref
	for _, c := range a.store.Snapshot().Collections {
		if c.Name == ref {
			id = c.ID
			break
		}
	}
	if err := a.collections.Use(id); err != nil {
		return err
	}
	if err := a.session.Remember(ctx); err != nil {
		a.log.Warn(ctx, "remember active course", "error", err)
	}
	return a.ListFiles(ctx, nil)
}

func (a *App) CreateCourse(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	c, err := a.collections.Create(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("created %s (%s)", c.Name, c.ID))
	return nil
}

func (a *App) RenameCourse(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	return a.collections.Rename(ctx, args[0], strings.Join(args[1:], " "))
}

func (a *App) DeleteCourse(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	name := args[0]
	if c, ok := a.store.Snapshot().Collection(args[0]); ok {
		name = c.Name
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete course %q and all its files?", name), a.writer())
	if err != nil || !ok {
		return err
	}
	return a.collections.Delete(ctx, args[0])
}

func (a *App) ListFiles(ctx context.Context, args []string) error {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	files, err := a.collections.LoadFiles(ctx, id)
	if err != nil {
		return err
	}
	a.printFiles(files)
	return nil
}

func (a *App) printFiles(files []models.FileRecord) {
	if len(files) == 0 {
		a.println(mutedStyle.Render("no files"))
		return
	}
	sel := a.store.Snapshot().Selection
	for i, f := range files {
		marker := " "
		if sel.Contains(f.ID) {
			marker = "✓"
		}
		a.println(fmt.Sprintf("%s #%-3d %-8s %s %s", marker, i+1, f.Type, f.Name, mutedStyle.Render(f.ID)))
	}
}

func (a *App) SelectFiles(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		ids = append(ids, a.resolveFile(arg))
	}
	if err := a.collections.Select(ids...); err != nil {
		return err
	}
	a.printSelection()
	return nil
}

func (a *App) ToggleFile(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.collections.Toggle(a.resolveFile(args[0])); err != nil {
		return err
	}
	a.printSelection()
	return nil
}

func (a *App) UnselectFile(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.collections.Unselect(a.resolveFile(args[0])); err != nil {
		return err
	}
	a.printSelection()
	return nil
}

func (a *App) ClearSelection(context.Context, []string) error {
	a.collections.ClearSelection()
	a.printSelection()
	return nil
}

func (a *App) printSelection() {
	snap := a.store.Snapshot()
	if snap.Selection.Empty() {
		a.println(mutedStyle.Render("selection empty"))
		return
	}
	names := make([]string, 0, len(snap.Selection.FileIDs))
	for _, id := range snap.Selection.FileIDs {
		if f, ok := snap.File(id); ok {
			names = append(names, f.Name)
		} else {
			names = append(names, id)
		}
	}
	a.println(fmt.Sprintf("selected %d: %s", len(names), strings.Join(names, ", ")))
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	defer a.uploads.ClearProgress()
	res, err := a.uploads.UploadBatch(ctx, "", args, a.progress.observe)
	if err != nil && res.Total() == 0 {
		return err
	}
	a.flushMessages()
	if err != nil {
		a.println(renderWarning(errorText(err)))
		return nil
	}
	a.printFiles(a.activeFiles())
	return nil
}

func (a *App) DeleteFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return a.collections.DeleteFile(ctx, a.resolveFile(args[0]))
}

func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	msg, err := a.collections.ImportURL(ctx, args[0])
	if err != nil {
		if common.IsPrecondition(err) {
			return err
		}
		return &describedError{msg: client.DescribeOr(err, common.MsgImportFailed), err: err}
	}
	a.println(msg)
	return nil
}

func (a *App) Ask(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	_, err := a.chat.Submit(ctx, strings.Join(args, " "))
	return err
}

func (a *App) Analyze(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	_, err := a.analyzer.Analyze(ctx, args[0], strings.Join(args[1:], " "))
	return err
}

func (a *App) GenerateCard(ctx context.Context, _ []string) error {
	_, err := a.artifacts.GenerateNoteCard(ctx)
	return err
}

func (a *App) Handwrite(ctx context.Context, _ []string) error {
	text, err := GetMultiline(a.reader, "Enter the note text", a.writer())
	if err != nil {
		return err
	}
	_, err = a.artifacts.GenerateHandwrittenNote(ctx, text)
	return err
}

func (a *App) ListCards(ctx context.Context, args []string) error {
	id := a.store.Snapshot().ActiveCollection
	if len(args) > 0 && args[0] == common.AllCollectionsID {
		id = common.AllCollectionsID
	}
	list, err := a.cards.List(ctx, id)
	if err != nil {
		return err
	}
	a.lastCards = list
	if len(list) == 0 {
		a.println(mutedStyle.Render("no cards"))
		return nil
	}
	for i, c := range list {
		a.println(fmt.Sprintf("#%-3d %s %s", i+1, titleStyle.Render(c.Title), mutedStyle.Render(c.ID)))
	}
	return nil
}

func (a *App) EditCard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	card, err := a.resolveCard(args[0])
	if err != nil {
		return err
	}
	title, err := GetSimpleText(a.reader, fmt.Sprintf("Title (empty keeps %q)", card.Title), a.writer())
	if err != nil {
		return err
	}
	if title == "" {
		title = card.Title
	}
	content, err := GetMultiline(a.reader, "Content (empty keeps the current text)", a.writer())
	if err != nil {
		return err
	}
	if content == "" {
		content = card.Content
	}
	return a.cards.Edit(ctx, card.ID, title, content)
}

func (a *App) DeleteCards(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		if c, err := a.resolveCard(arg); err == nil {
			ids = append(ids, c.ID)
		} else {
			ids = append(ids, arg)
		}
	}
	if len(ids) == 1 {
		return a.cards.Delete(ctx, ids[0])
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %d cards?", len(ids)), a.writer())
	if err != nil || !ok {
		return err
	}
	a.cards.DeleteBatch(ctx, ids)
	return nil
}

func (a *App) DownloadCard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	card, err := a.resolveCard(args[0])
	if err != nil {
		return err
	}
	path, err := a.cards.DownloadImage(ctx, card, a.config.DownloadDir)
	if err != nil {
		return err
	}
	a.println("saved " + path)
	return nil
}

func (a *App) SaveNote(ctx context.Context, args []string) error {
	id := ""
	if len(args) > 0 {
		id = args[0]
	} else {
		msgs := a.store.Snapshot().Messages
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role == models.RoleAssistant && !msgs[i].Loading {
				id = msgs[i].ID
				break
			}
		}
		if id == "" {
			return fmt.Errorf("%w: no reply to save", state.ErrMessageNotFound)
		}
	}
	n, err := a.notes.SaveMessage(ctx, id)
	if err != nil {
		return err
	}
	a.println("saved note " + n.ID)
	return nil
}

func (a *App) ListNotes(ctx context.Context, args []string) error {
	id := a.store.Snapshot().ActiveCollection
	if len(args) > 0 && args[0] == common.AllCollectionsID {
		id = ""
	}
	list, err := a.notes.List(ctx, id)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.println(mutedStyle.Render("no notes"))
		return nil
	}
	for _, n := range list {
		a.println(fmt.Sprintf("%s %s\n%s", titleStyle.Render(n.CreatedAt.Local().Format("2006-01-02 15:04")), mutedStyle.Render(n.ID), n.Content))
	}
	return nil
}

func (a *App) DeleteNote(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return a.notes.Delete(ctx, args[0])
}

func (a *App) ShareNotes(ctx context.Context, _ []string) error {
	active := a.store.Snapshot().ActiveCollection
	if active == "" {
		return common.ErrNoCollection
	}
	link, err := a.notes.Share(ctx, active)
	if err != nil {
		return err
	}
	a.println("shared: " + link)
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		ok, err := Confirm(a.reader, "Wipe the conversation history?", a.writer())
		if err != nil || !ok {
			return err
		}
		return a.session.ClearLocalData(ctx)
	}
	msgs := a.store.Snapshot().Messages
	for _, m := range msgs {
		if m.Loading {
			continue
		}
		a.println(renderMessage(m))
		a.shown[m.ID] = struct{}{}
	}
	return nil
}

// describedError carries the terminal text chosen for err.
type describedError struct {
	msg string
	err error
}

func (e *describedError) Error() string { return e.msg }
func (e *describedError) Unwrap() error { return e.err }

// errorText renders a command error for the terminal.
func errorText(err error) string {
	if common.IsPrecondition(err) || errors.Is(err, errUsage) || errors.Is(err, errUnknownCommand) {
		return err.Error()
	}
	if s := client.Describe(err); s != common.MsgUnknownError {
		return s
	}
	return err.Error()
}
