package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/webforge/internal/projects"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List and create projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long: `List the acting user's projects, most recently updated first.

Examples:
  webforge projects list --user <user-id>`,
	Args: cobra.NoArgs,
	RunE: runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Long: `Create a project seeded with starter code.

Examples:
  webforge projects create "My Site" --user <user-id>
  webforge projects create Shop --type nextjs --template ecommerce --user <user-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsCreate,
}

var (
	createType       string
	createTemplate   string
	createVisibility string
)

func init() {
	projectsCreateCmd.Flags().StringVarP(&createType, "type", "t", string(types.TypeReactVite), "Project type")
	projectsCreateCmd.Flags().StringVar(&createTemplate, "template", projects.DefaultTemplate, "Starter template")
	projectsCreateCmd.Flags().StringVar(&createVisibility, "visibility", string(types.VisibilityPrivate), "public or private")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := requireUser()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.svc.Projects.List(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	for _, p := range list {
		fmt.Printf("  %s  %-24s [%s, %s]\n", p.ID, truncate(p.Name, 24), p.Type, p.Visibility)
		if verbose {
			fmt.Printf("    Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := requireUser()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.svc.Projects.Create(ctx, id, types.CreateProjectRequest{
		Name:       args[0],
		Type:       types.ProjectType(createType),
		Template:   createTemplate,
		Visibility: types.Visibility(createVisibility),
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Printf("Created project %s (%s)\n", p.ID, p.Name)
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
