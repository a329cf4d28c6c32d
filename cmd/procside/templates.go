package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
)

const templatesDirName = "templates"

// templateFile is the on-disk shape of templates/<name>.yaml.
type templateFile struct {
	Steps []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Inputs      []string `yaml:"inputs"`
		Outputs     []string `yaml:"outputs"`
		Checks      []string `yaml:"checks"`
	} `yaml:"steps"`
	Risks []struct {
		ID         string `yaml:"id"`
		Risk       string `yaml:"risk"`
		Impact     string `yaml:"impact"`
		Mitigation string `yaml:"mitigation"`
	} `yaml:"risks"`
}

func templatePath(projectPath, name string) string {
	return filepath.Join(projectPath, templatesDirName, name+".yaml")
}

// loadTemplate reads templates/<name>.yaml under the project root.
// A missing file surfaces as os.ErrNotExist.
func loadTemplate(projectPath, name string) (app.Template, error) {
	path := templatePath(projectPath, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return app.Template{}, err
	}
	var file templateFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return app.Template{}, fmt.Errorf("decode template %s: %w", path, err)
	}

	tpl := app.Template{Name: name, Path: path}
	for _, s := range file.Steps {
		tpl.Steps = append(tpl.Steps, domain.StepDraft{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Inputs:      s.Inputs,
			Outputs:     s.Outputs,
			Checks:      s.Checks,
		})
	}
	for _, r := range file.Risks {
		tpl.Risks = append(tpl.Risks, domain.RiskDraft{
			ID:         r.ID,
			Risk:       r.Risk,
			Impact:     r.Impact,
			Mitigation: r.Mitigation,
		})
	}
	return tpl, nil
}

func listTemplates(projectPath string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(projectPath, templatesDirName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available process templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, err := cmd.Flags().GetString("path")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			names, err := listTemplates(projectPath)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "No templates found.")
				return nil
			}
			fmt.Fprintln(out, "Available templates:")
			fmt.Fprintln(out)
			for _, name := range names {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			fmt.Fprintln(out, "\nUsage: procside init --template <name>")
			return nil
		},
	}
}
