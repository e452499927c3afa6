package launch

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobshell/internal/parser"
	"jobshell/internal/pgroup"
	"jobshell/internal/sysproc"
	"jobshell/internal/sysproc/sysproctest"
)

func newLauncher(fake *sysproctest.Fake) *Launcher {
	pg := pgroup.New(fake, 0, true, zap.NewNop())
	return New(fake, pg, zap.NewNop())
}

func mustParse(t *testing.T, line string) *parser.Command {
	t.Helper()
	cmd, err := parser.Parse(line)
	require.NoError(t, err)
	return cmd
}

func TestSingleStartsNewGroup(t *testing.T) {
	fake := sysproctest.New()
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "sleep 1").Left, true)
	require.NoError(t, err)

	pid := sysproctest.FirstPid
	assert.Equal(t, pid, g.Pgid)
	require.Len(t, fake.Spawns, 1)
	sp := fake.Spawns[0]
	assert.Equal(t, "/usr/bin/sleep", sp.Path)
	assert.Equal(t, []string{"sleep", "1"}, sp.Argv)
	assert.Zero(t, sp.Attr.Pgid, "child leads its own group")
	assert.True(t, sp.Attr.Foreground)
	assert.Equal(t, [3]*os.File{os.Stdin, os.Stdout, os.Stderr}, sp.Attr.Files)
	assert.Equal(t, [][2]int{{pid, pid}}, fake.Setpgids, "parent asserts the group too")
}

func TestSingleBackgroundDoesNotClaimTerminal(t *testing.T) {
	fake := sysproctest.New()
	l := newLauncher(fake)

	_, err := l.Single(mustParse(t, "sleep 1").Left, false)
	require.NoError(t, err)
	assert.False(t, fake.Spawns[0].Attr.Foreground)
	assert.Equal(t, sysproctest.ShellPgid, fake.TtyOwner)
}

func TestSingleRedirections(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("data"), 0o644))
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("stale contents"), 0o600))
	errf := filepath.Join(dir, "err.txt")

	fake := sysproctest.New()
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "sort < "+in+" > "+out+" 2> "+errf).Left, true)
	require.NoError(t, err)
	require.True(t, g.Last().Started())

	files := fake.Spawns[0].Attr.Files
	assert.Equal(t, in, files[0].Name())
	assert.Equal(t, out, files[1].Name())
	assert.Equal(t, errf, files[2].Name())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, data, "output is truncated")

	info, err := os.Stat(errf)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644)&^umask(), info.Mode().Perm())

	// The parent keeps none of the opened descriptors.
	_, err = files[1].Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

// umask returns bits the process umask strips from new files.
func umask() os.FileMode {
	old := syscall.Umask(0)
	syscall.Umask(old)
	return os.FileMode(old)
}

func TestSingleRedirectFailureStartsNothing(t *testing.T) {
	fake := sysproctest.New()
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "echo hi > /nonexistent-dir/out.txt").Left, true)
	require.NoError(t, err)
	assert.Empty(t, fake.Spawns)
	assert.Zero(t, g.Pgid)
	assert.False(t, g.Last().Started())
	assert.Equal(t, sysproc.ExitStatus(StatusRedirectFailed), g.Last().Status)
}

func TestSingleMissingInputFile(t *testing.T) {
	fake := sysproctest.New()
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "cat < "+filepath.Join(t.TempDir(), "missing")).Left, true)
	require.NoError(t, err)
	assert.Empty(t, fake.Spawns)
	assert.Equal(t, StatusRedirectFailed, g.Last().Status.Code)
}

func TestSingleCommandNotFound(t *testing.T) {
	fake := sysproctest.New()
	fake.Missing["nosuchcmd"] = true
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "nosuchcmd").Left, true)
	require.NoError(t, err)
	assert.Empty(t, fake.Spawns)
	assert.Equal(t, sysproc.ExitStatus(StatusNotFound), g.Last().Status)
}

func TestSingleExecFailureIsChildLocal(t *testing.T) {
	fake := sysproctest.New()
	fake.ExecErr["script"] = syscall.ENOEXEC
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "script").Left, true)
	require.NoError(t, err)
	assert.Equal(t, sysproc.ExitStatus(StatusNotExecutable), g.Last().Status)
}

func TestSingleForkFailure(t *testing.T) {
	fake := sysproctest.New()
	fake.ForkErr[1] = syscall.EAGAIN
	l := newLauncher(fake)

	g, err := l.Single(mustParse(t, "ls").Left, true)
	assert.ErrorIs(t, err, ErrFork)
	assert.ErrorIs(t, err, syscall.EAGAIN)
	assert.Nil(t, g)
	assert.Empty(t, fake.Setpgids)
}

func TestPipelineWiring(t *testing.T) {
	fake := sysproctest.New()
	l := newLauncher(fake)

	g, err := l.Pipeline(mustParse(t, "ls | wc -l"))
	require.NoError(t, err)

	left, right := sysproctest.FirstPid, sysproctest.FirstPid+1
	assert.Equal(t, left, g.Pgid)
	require.Len(t, g.Procs, 2)
	assert.Equal(t, right, g.Last().Pid)

	require.Len(t, fake.Pipes, 2)
	r, w := fake.Pipes[0], fake.Pipes[1]
	assert.Same(t, w, fake.Spawns[0].Attr.Files[1])
	assert.Same(t, os.Stdin, fake.Spawns[0].Attr.Files[0])
	assert.Same(t, r, fake.Spawns[1].Attr.Files[0])
	assert.Same(t, os.Stdout, fake.Spawns[1].Attr.Files[1])

	assert.Zero(t, fake.Spawns[0].Attr.Pgid)
	assert.Equal(t, left, fake.Spawns[1].Attr.Pgid, "right stage joins the left's group")
	assert.Equal(t, [][2]int{{left, left}, {right, left}}, fake.Setpgids)

	// Parent holds neither end afterwards.
	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
	_, err = r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestPipelineRedirectionBeatsPipe(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "left.txt")
	in := filepath.Join(dir, "right.txt")
	require.NoError(t, os.WriteFile(in, nil, 0o644))

	fake := sysproctest.New()
	l := newLauncher(fake)

	_, err := l.Pipeline(mustParse(t, "ls > "+out+" | wc < "+in))
	require.NoError(t, err)

	assert.Equal(t, out, fake.Spawns[0].Attr.Files[1].Name())
	assert.Equal(t, in, fake.Spawns[1].Attr.Files[0].Name())
}

func TestPipelinePipeFailure(t *testing.T) {
	fake := sysproctest.New()
	fake.PipeErr = syscall.EMFILE
	l := newLauncher(fake)

	_, err := l.Pipeline(mustParse(t, "ls | wc"))
	assert.ErrorIs(t, err, ErrPipe)
	assert.Empty(t, fake.Spawns)
}

func TestPipelineLeftForkFailure(t *testing.T) {
	fake := sysproctest.New()
	fake.ForkErr[1] = syscall.EAGAIN
	l := newLauncher(fake)

	_, err := l.Pipeline(mustParse(t, "ls | wc"))
	assert.ErrorIs(t, err, ErrFork)
	assert.Empty(t, fake.Spawns, "right stage never started")

	_, err = fake.Pipes[1].Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestPipelineRightForkFailureReapsLeft(t *testing.T) {
	fake := sysproctest.New()
	fake.ForkErr[2] = syscall.EAGAIN
	fake.Exit(sysproctest.FirstPid, 0)
	l := newLauncher(fake)

	_, err := l.Pipeline(mustParse(t, "ls | wc"))
	assert.ErrorIs(t, err, ErrFork)
	assert.Equal(t, []int{sysproctest.FirstPid}, fake.Waits)
	assert.Zero(t, fake.Pending())
}

func TestPipelineLeftNeverStarted(t *testing.T) {
	fake := sysproctest.New()
	fake.Missing["nope"] = true
	l := newLauncher(fake)

	g, err := l.Pipeline(mustParse(t, "nope | wc"))
	require.NoError(t, err)
	require.Len(t, g.Procs, 2)
	assert.False(t, g.Procs[0].Started())
	assert.Equal(t, sysproctest.FirstPid, g.Pgid, "right stage leads when left never started")
	assert.Zero(t, fake.Spawns[0].Attr.Pgid)
}

func TestForkErrorClassification(t *testing.T) {
	fake := sysproctest.New()
	fake.ForkErr[1] = syscall.ENOMEM
	l := newLauncher(fake)

	_, err := l.Single(mustParse(t, "ls").Left, false)
	assert.True(t, errors.Is(err, ErrFork))
}
