package main

import (
	"encoding/json"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/greenfinch/fieldvisit/internal/assessment"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/store"
)

// visitFile is the on-disk description of a field visit. Image paths are
// relative to the file.
type visitFile struct {
	model.AssessmentInput `yaml:",inline"`
	Images                []string `json:"images" yaml:"images"`
	NoteImages            []string `json:"note_images" yaml:"note_images"`
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Value a field visit described in a YAML or JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		inputPath, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")
		save, _ := cmd.Flags().GetBool("save")

		sub, err := loadSubmission(inputPath)
		if err != nil {
			return err
		}

		var st store.Store
		if save {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		svc, err := newService(cfg, st)
		if err != nil {
			return err
		}

		rep, err := svc.Assess(ctx, sub)
		if err != nil {
			return eris.Wrap(err, "assess")
		}
		return writeReport(cmd.OutOrStdout(), rep, format, time.Now())
	},
}

func init() {
	assessCmd.Flags().String("input", "", "path to a visit file (.yaml, .yml or .json)")
	assessCmd.Flags().String("format", "text", "output format: text, json or html")
	assessCmd.Flags().Bool("save", true, "store the report")
	_ = assessCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(assessCmd)
}

// loadSubmission reads a visit file and the images it references.
func loadSubmission(path string) (assessment.Submission, error) {
	var sub assessment.Submission

	data, err := os.ReadFile(path)
	if err != nil {
		return sub, eris.Wrapf(err, "read visit file %s", path)
	}

	var vf visitFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &vf)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &vf)
	default:
		return sub, eris.Errorf("unsupported visit file type %q", filepath.Ext(path))
	}
	if err != nil {
		return sub, eris.Wrapf(err, "parse visit file %s", path)
	}

	dir := filepath.Dir(path)
	sub.Input = vf.AssessmentInput
	if sub.Images, err = loadImages(dir, vf.Images); err != nil {
		return sub, err
	}
	if sub.NoteImages, err = loadImages(dir, vf.NoteImages); err != nil {
		return sub, err
	}
	return sub, nil
}

func loadImages(dir string, paths []string) ([]model.Image, error) {
	images := make([]model.Image, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "read image %s", p)
		}
		images = append(images, model.Image{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Data:        data,
		})
	}
	return images, nil
}
