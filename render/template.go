// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package render

const mapHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Talk map</title>
  <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
  <link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css">
  <link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css">
  <style>
    html, body, #map { height: 100%; margin: 0; }
  </style>
</head>
<body>
  <div id="map" data-locations="{{ .Locations }}" data-clusters="{{ .Clusters }}"></div>
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
  <script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
  <script src="org-locations.js"></script>
  <script>
    (function () {
      var cluster = {{ .Cluster }};
      var map = L.map('map').setView([20, 0], 2);

      L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
        maxZoom: 18,
        attribution: '&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors'
      }).addTo(map);

      var layer = cluster ? L.markerClusterGroup() : L.layerGroup();
      var bounds = [];

      addressPoints.forEach(function (point) {
        var popup = document.createElement('div');
        var title = document.createElement('strong');
        title.textContent = point[0];
        popup.appendChild(title);

        if (point[3] && point[3].length) {
          var list = document.createElement('ul');
          point[3].forEach(function (talk) {
            var item = document.createElement('li');
            item.textContent = talk;
            list.appendChild(item);
          });
          popup.appendChild(list);
        }

        var m = L.marker(L.latLng(point[1], point[2]), { title: point[0] });
        m.bindPopup(popup);
        layer.addLayer(m);
        bounds.push([point[1], point[2]]);
      });

      map.addLayer(layer);

      if (bounds.length > 1) {
        map.fitBounds(bounds, { padding: [20, 20] });
      } else if (bounds.length === 1) {
        map.setView(bounds[0], 8);
      }
    })();
  </script>
</body>
</html>
`
