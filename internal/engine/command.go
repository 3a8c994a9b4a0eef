package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ferrydata/ferry/pkg/models"
)

// Invocation is a fully prepared engine process: argv, merged environment
// and the temp config artifact, if one was written. The same spec always
// produces the same argv modulo the temp file's generated name.
type Invocation struct {
	Path string
	Args []string
	Env  []string
	// TempPath is owned by the Handle once executed; Build callers that
	// never execute must remove it themselves.
	TempPath string
}

// BuildRun maps an ad-hoc run spec to a discrete-flag invocation.
// Validation failures happen here, before any process is spawned.
func BuildRun(spec *models.RunSpec, output OutputMode) (*Invocation, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if output == OutputArrow && spec.Target.Object != "" {
		return nil, &models.ConfigError{Reason: "arrow streaming cannot be used with a target object"}
	}

	binary, err := Binary()
	if err != nil {
		return nil, err
	}

	args := []string{"run"}
	if spec.Debug {
		args = append(args, "-d")
	}

	if spec.Input != nil {
		format := spec.InputFormat
		if format == "" {
			format = models.FormatCSV
		}
		args = append(args, "--stdin", string(format))
	} else {
		args = append(args, "--src-conn", spec.Source.Conn)
	}
	if spec.Source.Stream != "" {
		args = append(args, "--src-stream", spec.Source.Stream)
	}
	if len(spec.Source.PrimaryKey) > 0 {
		args = append(args, "--primary-key", strings.Join(spec.Source.PrimaryKey, ","))
	}
	if spec.Source.UpdateKey != "" {
		args = append(args, "--update-key", spec.Source.UpdateKey)
	}
	if len(spec.Source.Options) > 0 {
		blob, err := optionsJSON(spec.Source.Options)
		if err != nil {
			return nil, err
		}
		args = append(args, "--src-options", blob)
	}

	if spec.Target.Conn != "" {
		args = append(args, "--tgt-conn", spec.Target.Conn)
	}
	if spec.Target.Object != "" {
		args = append(args, "--tgt-object", spec.Target.Object)
	}
	if len(spec.Target.Options) > 0 {
		blob, err := optionsJSON(spec.Target.Options)
		if err != nil {
			return nil, err
		}
		args = append(args, "--tgt-options", blob)
	}

	mode := spec.Mode
	if mode == "" {
		mode = models.FullRefresh
	}
	args = append(args, "--mode", string(mode))

	if len(spec.Select) > 0 {
		args = append(args, "--select", strings.Join(spec.Select, ","))
	}
	if spec.Where != "" {
		args = append(args, "--where", spec.Where)
	}
	if spec.Limit > 0 {
		args = append(args, "--limit", strconv.Itoa(spec.Limit))
	}
	if len(spec.StreamOptions) > 0 {
		blob, err := optionsJSON(spec.StreamOptions)
		if err != nil {
			return nil, err
		}
		args = append(args, "--stream-options", blob)
	}

	switch output {
	case OutputRows:
		args = append(args, "--stdout", string(models.FormatCSV))
	case OutputArrow:
		args = append(args, "--stdout", string(models.FormatArrow))
	}

	return &Invocation{
		Path: binary,
		Args: args,
		Env:  MergeEnv(spec.Env),
	}, nil
}

// BuildReplication maps a replication to an invocation referencing its
// config document. When the replication came from a file, the file path is
// used directly; otherwise the canonical document is written to a temp
// artifact that the resulting Handle deletes on every exit path.
func BuildReplication(r *models.Replication) (*Invocation, error) {
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}

	binary, err := Binary()
	if err != nil {
		return nil, err
	}

	path := r.FilePath
	tempPath := ""
	if path == "" {
		tempPath, err = writeTempDoc("ferry-replication", doc)
		if err != nil {
			return nil, err
		}
		path = tempPath
	}

	args := []string{"run"}
	if r.Debug {
		args = append(args, "-d")
	}
	args = append(args, "-r", path)

	return &Invocation{
		Path:     binary,
		Args:     args,
		Env:      MergeEnv(r.Env),
		TempPath: tempPath,
	}, nil
}

func writeTempDoc(prefix string, doc []byte) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.json", prefix, uuid.NewString()))
	if err := os.WriteFile(path, doc, 0600); err != nil {
		return "", &ResourceError{Op: "write temp config", Path: path, Err: err}
	}
	return path, nil
}

func optionsJSON(opts models.Options) (string, error) {
	blob, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("serialize options: %w", err)
	}
	return string(blob), nil
}
