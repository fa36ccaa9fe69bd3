package ebiten_test

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/entalloc/ecs"
	"github.com/plus3/entalloc/ecs/debugui"
	debugui_ebiten "github.com/plus3/entalloc/ecs/debugui/ebiten"
)

// Game implements ebiten.Game and integrates the ECS with ImGui rendering.
type Game struct {
	storage      *ecs.Storage
	scheduler    *ecs.Scheduler
	imguiBackend *debugui_ebiten.ImguiBackend
}

func (g *Game) Update() error {
	// Begin ImGui frame before executing systems
	g.imguiBackend.BeginFrame()

	// Execute all ECS systems (including ImguiSystem and DebugUISystem)
	g.scheduler.Once(1.0 / 60.0)

	// End ImGui frame after systems complete
	g.imguiBackend.EndFrame()

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	// Draw game content to screen
	// ...

	// Draw ImGui overlay on top
	g.imguiBackend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.imguiBackend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func Example() {
	imguiBackend := debugui_ebiten.NewImguiBackend("Entity Allocator Debug", 1280, 720)

	// Set up ECS component registry
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[debugui.ImguiItem](registry)
	debugui.RegisterDebugUIComponents(registry)

	storage := ecs.NewStorage(registry)

	// Spawn entities with ImGui render functions
	storage.Spawn(debugui.ImguiItem{
		Render: func() {
			imgui.Begin("Debug Window")
			imgui.Text("Hello from ECS!")
			imgui.End()
		},
	})
	debugui.SpawnDebugUI(storage)

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&debugui.ImguiSystem{})
	scheduler.Register(&debugui.DebugUISystem{Scheduler: scheduler})

	game := &Game{
		storage:      storage,
		scheduler:    scheduler,
		imguiBackend: imguiBackend,
	}

	if err := ebiten.RunGame(game); err != nil {
		panic(err)
	}
}
