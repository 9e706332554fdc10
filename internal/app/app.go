package app

import (
	"go.uber.org/fx"

	"github.com/zerobertocosta/Karibu/internal/cache"
	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/database"
	"github.com/zerobertocosta/Karibu/internal/logger"
	"github.com/zerobertocosta/Karibu/internal/messaging"
	"github.com/zerobertocosta/Karibu/internal/notifier"
	"github.com/zerobertocosta/Karibu/internal/observability"
	repositorykitchen "github.com/zerobertocosta/Karibu/internal/repository/kitchen"
	repositorymenu "github.com/zerobertocosta/Karibu/internal/repository/menu"
	repositoryorder "github.com/zerobertocosta/Karibu/internal/repository/order"
	repositorytable "github.com/zerobertocosta/Karibu/internal/repository/table"
	repositorywaitercall "github.com/zerobertocosta/Karibu/internal/repository/waitercall"
	httpserver "github.com/zerobertocosta/Karibu/internal/server/http"
	servicekitchen "github.com/zerobertocosta/Karibu/internal/service/kitchen"
	servicemenu "github.com/zerobertocosta/Karibu/internal/service/menu"
	serviceorder "github.com/zerobertocosta/Karibu/internal/service/order"
	servicetable "github.com/zerobertocosta/Karibu/internal/service/table"
	servicewaitercall "github.com/zerobertocosta/Karibu/internal/service/waitercall"
	transporthttp "github.com/zerobertocosta/Karibu/internal/transport/http"
	"github.com/zerobertocosta/Karibu/internal/worker"
	workerkitchen "github.com/zerobertocosta/Karibu/internal/worker/kitchen"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	notifier.Module,
	repositorytable.Module,
	repositorymenu.Module,
	repositoryorder.Module,
	repositorykitchen.Module,
	repositorywaitercall.Module,
	servicetable.Module,
	servicemenu.Module,
	serviceorder.Module,
	servicekitchen.Module,
	servicewaitercall.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerkitchen.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
