package main

import (
	"fmt"
	"os"
	"time"

	"github.com/parttimestudent/backend/internal/config"
	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/services"
)

// Seeds a handful of demo users and projects into the configured database.
// Intended for local frontend development, not production.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		os.Exit(1)
	}
	db := models.GetDB()

	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)

	students := []services.RegisterRequest{
		{FirstName: "Alice", YearLevel: "2", Specialty: "Frontend", Username: "alice", Password: "password1"},
		{FirstName: "Bob", YearLevel: "3", Specialty: "Backend", Username: "bob", Password: "password1"},
		{FirstName: "Carol", YearLevel: "4", Specialty: "QA", Username: "carol", Password: "password1"},
	}

	var created []*models.User
	for _, req := range students {
		user, err := userService.Register(&req)
		if err != nil {
			fmt.Printf("skip %s: %v\n", req.Username, err)
			continue
		}
		fmt.Printf("created %s (%s)\n", user.Username, user.CustomID)
		created = append(created, user)
	}

	if len(created) == 0 {
		fmt.Println("no demo users created, nothing else to seed")
		return
	}

	pm := created[0]
	start := time.Now().Format("2006-01-02")
	req := &services.ProjectRequest{
		ProjectName:     "Demo Portal",
		DifficultyLevel: 3,
		DurationDays:    14,
		PMUserID:        &pm.ID,
		StartDate:       start,
	}
	project, err := projectService.Create(req, pm.ID)
	if err != nil {
		fmt.Printf("failed to create demo project: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created project %q, deadline %s\n", project.ProjectName, project.Deadline.Format("2006-01-02"))

	pmActor := services.Actor{ID: pm.ID, Role: models.RolePM}
	for _, u := range created[1:] {
		if err := projectService.AddMember(project.ID, u.ID, pmActor); err != nil {
			fmt.Printf("skip member %s: %v\n", u.Username, err)
		}
	}

	fmt.Println("done")
}
